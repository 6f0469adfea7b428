package service

import (
	"sort"

	"github.com/noah-isme/codepulse-api/internal/models"
)

const trendWindow = 4

// Trend labels produced by ClassifySlope.
const (
	TrendStrongIncrease   = "strong increase"
	TrendModerateIncrease = "moderate increase"
	TrendSlightIncrease   = "slight increase"
	TrendStable           = "stable"
	TrendSlightDecrease   = "slight decrease"
	TrendModerateDecrease = "moderate decrease"
	TrendStrongDecrease   = "strong decrease"
)

// AnalyzeTrends fits a least-squares line through the most recent weeks (at most four) for
// commits and active days and labels each slope.
func AnalyzeTrends(weekly []models.WeeklyMetric) models.TrendAnalysis {
	notEnough := models.TrendAnalysis{
		CommitTrend:     models.TrendNotEnough,
		ActiveDaysTrend: models.TrendNotEnough,
		OverallTrend:    models.TrendNotEnough,
	}
	if len(weekly) < 2 {
		return notEnough
	}

	sorted := make([]models.WeeklyMetric, len(weekly))
	copy(sorted, weekly)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].WeekOf.Before(sorted[j].WeekOf) })
	if len(sorted) > trendWindow {
		sorted = sorted[len(sorted)-trendWindow:]
	}
	if len(sorted) < 2 {
		return notEnough
	}

	commits := make([]float64, len(sorted))
	activeDays := make([]float64, len(sorted))
	for i, week := range sorted {
		commits[i] = float64(week.CommitCount)
		activeDays[i] = float64(week.ActiveDays)
	}

	commitSlope := RegressionSlope(commits)
	activeSlope := RegressionSlope(activeDays)

	return models.TrendAnalysis{
		CommitTrend:     ClassifySlope(commitSlope),
		ActiveDaysTrend: ClassifySlope(activeSlope),
		OverallTrend:    ClassifySlope((commitSlope + activeSlope) / 2),
	}
}

// RegressionSlope is the ordinary least-squares slope of values against their index.
func RegressionSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}

	var sumX, sumY float64
	for i, y := range values {
		sumX += float64(i)
		sumY += y
	}
	meanX, meanY := sumX/n, sumY/n

	var covariance, variance float64
	for i, y := range values {
		dx := float64(i) - meanX
		covariance += dx * (y - meanY)
		variance += dx * dx
	}
	if variance == 0 {
		return 0
	}
	return covariance / variance
}

// ClassifySlope maps a regression slope to a qualitative label.
func ClassifySlope(slope float64) string {
	switch {
	case slope > 0.5:
		return TrendStrongIncrease
	case slope > 0.1:
		return TrendModerateIncrease
	case slope > 0:
		return TrendSlightIncrease
	case slope == 0:
		return TrendStable
	case slope > -0.1:
		return TrendSlightDecrease
	case slope > -0.5:
		return TrendModerateDecrease
	default:
		return TrendStrongDecrease
	}
}
