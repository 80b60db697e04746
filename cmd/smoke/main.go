package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase    string
	token      string
	client     = &http.Client{Timeout: 30 * time.Second}
	testDate   string
	createdIDs = make(map[string]string) // track created resources for cleanup
)

func main() {
	fmt.Println("=== Nutrition Hub E2E Smoke Test ===")
	fmt.Println()

	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	token = getEnv("SMOKE_TOKEN", "")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	testDate = time.Now().UTC().Format("2006-01-02")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Dev Token", testDevToken},
		{"Update Profile", testUpdateProfile},
		{"Create Goal", testCreateGoal},
		{"Create Food", testCreateFood},
		{"Log Food", testLogFood},
		{"Log Natural", testLogNatural},
		{"Daily Summary", testDailySummary},
		{"Weekly Summary", testWeeklySummary},
		{"Progress Series", testProgress},
		{"Insights", testInsights},
		{"Create Report (CSV)", testCreateReportCSV},
		{"List Reports", testListReports},
		{"Download Report", testDownloadReport},
		{"Delete Report", testDeleteReport},
		{"Delete Food Log", testDeleteFoodLog},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	return call("GET", "/healthz", nil, http.StatusOK, nil)
}

// testDevToken fetches a dev token unless SMOKE_TOKEN is set. Servers
// running AUTH_MODE=none accept requests without one.
func testDevToken() error {
	if token != "" {
		return nil
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	err := call("POST", "/v1/auth/dev", nil, http.StatusOK, &result)
	if err != nil {
		fmt.Printf("(skipped: %v) ", err)
		return nil
	}
	token = result.AccessToken
	return nil
}

func testUpdateProfile() error {
	payload := map[string]interface{}{
		"age":            30,
		"weight_kg":      80,
		"height_cm":      180,
		"activity_level": "moderately_active",
	}

	var result struct {
		BMI *float64 `json:"bmi"`
	}
	if err := call("PUT", "/v1/users/profile", payload, http.StatusOK, &result); err != nil {
		return err
	}
	if result.BMI == nil || *result.BMI != 24.69 {
		return fmt.Errorf("expected bmi 24.69, got %v", result.BMI)
	}
	return nil
}

func testCreateGoal() error {
	payload := map[string]interface{}{
		"daily_calories":  2000,
		"daily_protein_g": 100,
		"daily_carbs_g":   250,
		"daily_fat_g":     70,
		"goal_type":       "maintenance",
	}

	var result struct {
		ID       string `json:"id"`
		IsActive bool   `json:"is_active"`
	}
	if err := call("POST", "/v1/nutrition/goals", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	if !result.IsActive {
		return fmt.Errorf("new goal is not active")
	}
	createdIDs["goal"] = result.ID
	return nil
}

func testCreateFood() error {
	payload := map[string]interface{}{
		"name":      fmt.Sprintf("Smoke Oats %d", time.Now().Unix()),
		"calories":  389,
		"protein_g": 16.9,
		"carbs_g":   66.3,
		"fat_g":     6.9,
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := call("POST", "/v1/foods", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	createdIDs["food"] = result.ID
	return nil
}

func testLogFood() error {
	payload := map[string]interface{}{
		"food_id":   createdIDs["food"],
		"quantity":  80,
		"unit":      "gram",
		"meal_type": "breakfast",
	}

	var result struct {
		ID        string `json:"id"`
		Nutrients struct {
			Calories float64 `json:"calories"`
		} `json:"nutrients"`
	}
	if err := call("POST", "/v1/food/log", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	// 80 g of 389 kcal/100 g
	if result.Nutrients.Calories < 311 || result.Nutrients.Calories > 312 {
		return fmt.Errorf("unexpected calories %.1f", result.Nutrients.Calories)
	}
	createdIDs["log"] = result.ID
	return nil
}

// testLogNatural tolerates nothing_parsed: the catalog of a fresh
// deployment may not know any of the parsed foods.
func testLogNatural() error {
	payload := map[string]interface{}{
		"text":      "2 rotis and a bowl of dal",
		"meal_type": "lunch",
	}

	var result struct {
		Logs []struct {
			ID string `json:"id"`
		} `json:"logs"`
	}
	err := call("POST", "/v1/food/log-natural", payload, http.StatusCreated, &result)
	if err != nil {
		if strings.Contains(err.Error(), "nothing_parsed") {
			fmt.Printf("(nothing matched) ")
			return nil
		}
		return err
	}
	if len(result.Logs) == 0 {
		return fmt.Errorf("no entries logged from natural text")
	}
	return nil
}

func testDailySummary() error {
	var result struct {
		Date   string `json:"date"`
		Totals struct {
			Calories float64 `json:"calories"`
		} `json:"totals"`
		TotalMeals int `json:"total_meals"`
	}
	if err := call("GET", "/v1/dashboard/summary/"+testDate, nil, http.StatusOK, &result); err != nil {
		return err
	}
	if result.TotalMeals < 1 || result.Totals.Calories <= 0 {
		return fmt.Errorf("summary does not include logged food: %+v", result)
	}
	return nil
}

func testWeeklySummary() error {
	var result struct {
		Days []json.RawMessage `json:"days"`
	}
	if err := call("GET", "/v1/dashboard/weekly-summary?end_date="+testDate, nil, http.StatusOK, &result); err != nil {
		return err
	}
	if len(result.Days) != 7 {
		return fmt.Errorf("expected 7 days, got %d", len(result.Days))
	}
	return nil
}

func testProgress() error {
	var result struct {
		Labels []string `json:"labels"`
	}
	if err := call("GET", "/v1/dashboard/progress?days=5", nil, http.StatusOK, &result); err != nil {
		return err
	}
	if len(result.Labels) != 5 {
		return fmt.Errorf("expected 5 points, got %d", len(result.Labels))
	}
	return nil
}

func testInsights() error {
	var result struct {
		Insights []json.RawMessage `json:"insights"`
		Period   string            `json:"period"`
	}
	if err := call("GET", "/v1/dashboard/insights", nil, http.StatusOK, &result); err != nil {
		return err
	}
	if len(result.Insights) < 2 {
		return fmt.Errorf("expected at least the two tips, got %d insights", len(result.Insights))
	}
	return nil
}

func testCreateReportCSV() error {
	payload := map[string]interface{}{
		"format": "csv",
		"from":   time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02"),
		"to":     testDate,
	}

	var result struct {
		ID        string `json:"id"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := call("POST", "/v1/reports", payload, http.StatusCreated, &result); err != nil {
		return err
	}
	if result.SizeBytes < 10 {
		return fmt.Errorf("report size is %d bytes (too small)", result.SizeBytes)
	}

	createdIDs["report"] = result.ID
	return nil
}

func testListReports() error {
	var result struct {
		Reports []struct {
			ID string `json:"id"`
		} `json:"reports"`
	}
	if err := call("GET", "/v1/reports", nil, http.StatusOK, &result); err != nil {
		return err
	}
	if len(result.Reports) == 0 {
		return fmt.Errorf("no reports found")
	}
	return nil
}

func testDownloadReport() error {
	reportID := createdIDs["report"]
	if reportID == "" {
		return fmt.Errorf("no report ID to download")
	}

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/v1/reports/%s/download", apiBase, reportID), nil)
	if err != nil {
		return err
	}
	addAuth(req)

	// Don't follow redirects automatically - we need to check redirect behavior
	originalCheckRedirect := client.CheckRedirect
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	defer func() { client.CheckRedirect = originalCheckRedirect }()

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// streamed by the API (local blob mode)
		return checkReportBody(resp.Body)

	case http.StatusFound:
		// presigned or public URL (S3 mode)
		location := resp.Header.Get("Location")
		if location == "" {
			return fmt.Errorf("redirect without Location header")
		}

		getResp, err := client.Get(location)
		if err != nil {
			return fmt.Errorf("failed to follow redirect: %w", err)
		}
		defer getResp.Body.Close()

		if getResp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(getResp.Body, 4096))
			return fmt.Errorf("redirect failed: status=%d body=%s", getResp.StatusCode, string(body))
		}
		return checkReportBody(getResp.Body)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("unexpected status=%d body=%s", resp.StatusCode, string(body))
}

func testDeleteReport() error {
	reportID := createdIDs["report"]
	if reportID == "" {
		return fmt.Errorf("no report ID to delete")
	}
	return call("DELETE", "/v1/reports/"+reportID, nil, http.StatusNoContent, nil)
}

func testDeleteFoodLog() error {
	logID := createdIDs["log"]
	if logID == "" {
		return fmt.Errorf("no food log ID to delete")
	}
	return call("DELETE", "/v1/food/logs/"+logID, nil, http.StatusNoContent, nil)
}

// Helper functions

// call sends payload as JSON, checks the status and decodes into out when set.
func call(method, path string, payload interface{}, wantStatus int, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode failed: %w", err)
		}
	}
	return nil
}

func checkReportBody(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) < 10 {
		return fmt.Errorf("report too small: %d bytes", len(data))
	}
	return nil
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
