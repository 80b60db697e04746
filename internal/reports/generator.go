package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/fdg312/nutrition-hub/internal/nutrition"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/jung-kurt/gofpdf"
)

// Generator renders daily summaries as CSV or PDF.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders days (oldest first) in the requested format.
func (g *Generator) Generate(format, from, to string, days []storage.DailySummary) ([]byte, error) {
	switch format {
	case FormatPDF:
		return g.generatePDF(from, to, days)
	case FormatCSV:
		return g.generateCSV(days)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

var csvHeader = []string{
	"date", "calories", "protein_g", "carbs_g", "fat_g", "fiber_g", "sugar_g", "sodium_mg",
	"calories_goal", "protein_goal_g", "carbs_goal_g", "fat_goal_g",
	"calories_progress", "total_meals", "total_snacks",
}

func (g *Generator) generateCSV(days []storage.DailySummary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, d := range days {
		row := []string{
			d.Date,
			formatFloat(d.Totals.Calories),
			formatFloat(d.Totals.ProteinG),
			formatFloat(d.Totals.CarbsG),
			formatFloat(d.Totals.FatG),
			formatFloat(d.Totals.FiberG),
			formatFloat(d.Totals.SugarG),
			formatFloat(d.Totals.SodiumMg),
			formatOptional(d.CaloriesGoal),
			formatOptional(d.ProteinGoal),
			formatOptional(d.CarbsGoal),
			formatOptional(d.FatGoal),
			formatOptional(d.CaloriesProgress),
			strconv.Itoa(d.TotalMeals),
			strconv.Itoa(d.TotalSnacks),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *Generator) generatePDF(from, to string, days []storage.DailySummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Nutrition Report")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Period: %s to %s", from, to)))
	pdf.Ln(12)

	var totals storage.Nutrients
	logged := 0
	for _, d := range days {
		totals = nutrition.Add(totals, d.Totals)
		if d.TotalMeals+d.TotalSnacks > 0 {
			logged++
		}
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	lines := []string{fmt.Sprintf("Days in period: %d (with entries: %d)", len(days), logged)}
	if len(days) > 0 {
		n := float64(len(days))
		lines = append(lines,
			fmt.Sprintf("Average calories: %.0f kcal", totals.Calories/n),
			fmt.Sprintf("Average protein: %.1f g", totals.ProteinG/n),
			fmt.Sprintf("Average carbs: %.1f g", totals.CarbsG/n),
			fmt.Sprintf("Average fat: %.1f g", totals.FatG/n),
		)
	}
	for _, line := range lines {
		pdf.Cell(0, 6, line)
		pdf.Ln(5)
	}
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Daily breakdown")
	pdf.Ln(8)

	g.drawDaysTable(pdf, days)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *Generator) drawDaysTable(pdf *gofpdf.Fpdf, days []storage.DailySummary) {
	pdf.SetFont("Helvetica", "B", 8)

	headers := []string{"Date", "kcal", "Goal", "Progress", "Protein", "Carbs", "Fat", "Meals", "Snacks"}
	widths := []float64{25, 20, 20, 20, 20, 20, 20, 15, 15}
	for i, h := range headers {
		ln := 0
		if i == len(headers)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 6, h, "1", ln, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 8)
	for _, d := range days {
		progress := ""
		if d.CaloriesProgress != nil {
			progress = fmt.Sprintf("%.0f%%", *d.CaloriesProgress)
		}
		cells := []string{
			d.Date,
			fmt.Sprintf("%.0f", d.Totals.Calories),
			formatOptional(d.CaloriesGoal),
			progress,
			fmt.Sprintf("%.1f", d.Totals.ProteinG),
			fmt.Sprintf("%.1f", d.Totals.CarbsG),
			fmt.Sprintf("%.1f", d.Totals.FatG),
			strconv.Itoa(d.TotalMeals),
			strconv.Itoa(d.TotalSnacks),
		}
		for i, c := range cells {
			ln := 0
			if i == len(cells)-1 {
				ln = 1
			}
			pdf.CellFormat(widths[i], 6, c, "1", ln, "C", false, 0, "")
		}
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(nutrition.Round1(v), 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
