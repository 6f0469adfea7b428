package service

import "github.com/noah-isme/codepulse-api/internal/models"

// CalculateClassAverages averages GitHub fields over students with commits and LeetCode fields
// over students with solved problems. It returns nil for an empty class. When nobody has commits
// the GitHub block is all zeros, while with nobody solving problems the LeetCode block is nil.
func CalculateClassAverages(metrics []models.StudentMetrics) *models.ClassAverages {
	if len(metrics) == 0 {
		return nil
	}

	var github models.GithubAverages
	var githubActive int
	var leetcode models.LeetCodeAverages
	var leetcodeActive int

	for _, m := range metrics {
		if m.Github.Commits.Total > 0 {
			githubActive++
			github.Commits.Total += float64(m.Github.Commits.Total)
			github.Commits.Recent90Days += float64(m.Github.Commits.Recent90Days)
			github.Repositories.Total += float64(m.Github.Repositories.Total)
			github.Repositories.Active += float64(m.Github.Repositories.Active)
			streak := m.Github.Consistency.Streak
			github.Consistency.Streak.Current += float64(streak.Current)
			github.Consistency.Streak.Longest += float64(streak.Longest)
			github.Consistency.Streak.Last30Days += float64(streak.Last30Days)
			github.Consistency.WeeklyAverage += m.Github.Consistency.WeeklyAverage
		}
		if m.LeetCode != nil && m.LeetCode.ProblemsSolved.Total > 0 {
			leetcodeActive++
			solved := m.LeetCode.ProblemsSolved
			leetcode.ProblemsSolved.Total += float64(solved.Total)
			leetcode.ProblemsSolved.Easy += float64(solved.Easy)
			leetcode.ProblemsSolved.Medium += float64(solved.Medium)
			leetcode.ProblemsSolved.Hard += float64(solved.Hard)
		}
	}

	averages := &models.ClassAverages{Github: &models.GithubAverages{}}
	if githubActive > 0 {
		n := float64(githubActive)
		averages.Github = &models.GithubAverages{
			Commits: models.CommitAverages{
				Total:        github.Commits.Total / n,
				Recent90Days: github.Commits.Recent90Days / n,
			},
			Repositories: models.RepositoryAverages{
				Total:  github.Repositories.Total / n,
				Active: github.Repositories.Active / n,
			},
			Consistency: models.ConsistencyAverages{
				Streak: models.StreakAverages{
					Current:    github.Consistency.Streak.Current / n,
					Longest:    github.Consistency.Streak.Longest / n,
					Last30Days: github.Consistency.Streak.Last30Days / n,
				},
				WeeklyAverage: github.Consistency.WeeklyAverage / n,
			},
		}
	}
	if leetcodeActive > 0 {
		n := float64(leetcodeActive)
		averages.LeetCode = &models.LeetCodeAverages{ProblemsSolved: models.ProblemAverages{
			Total:  leetcode.ProblemsSolved.Total / n,
			Easy:   leetcode.ProblemsSolved.Easy / n,
			Medium: leetcode.ProblemsSolved.Medium / n,
			Hard:   leetcode.ProblemsSolved.Hard / n,
		}}
	}
	return averages
}

// CompareMetrics expresses each student field as a percentage difference from the class average.
// A zero average yields a zero difference.
func CompareMetrics(student *models.StudentMetrics, averages *models.ClassAverages) *models.MetricsComparison {
	if student == nil || averages == nil {
		return nil
	}

	comparison := &models.MetricsComparison{}
	if averages.Github != nil {
		avg := averages.Github
		gh := student.Github
		streak := gh.Consistency.Streak
		comparison.Github = &models.GithubAverages{
			Commits: models.CommitAverages{
				Total:        percentDiff(float64(gh.Commits.Total), avg.Commits.Total),
				Recent90Days: percentDiff(float64(gh.Commits.Recent90Days), avg.Commits.Recent90Days),
			},
			Repositories: models.RepositoryAverages{
				Total:  percentDiff(float64(gh.Repositories.Total), avg.Repositories.Total),
				Active: percentDiff(float64(gh.Repositories.Active), avg.Repositories.Active),
			},
			Consistency: models.ConsistencyAverages{
				Streak: models.StreakAverages{
					Current:    percentDiff(float64(streak.Current), avg.Consistency.Streak.Current),
					Longest:    percentDiff(float64(streak.Longest), avg.Consistency.Streak.Longest),
					Last30Days: percentDiff(float64(streak.Last30Days), avg.Consistency.Streak.Last30Days),
				},
				WeeklyAverage: percentDiff(gh.Consistency.WeeklyAverage, avg.Consistency.WeeklyAverage),
			},
		}
	}
	if averages.LeetCode != nil && student.LeetCode != nil {
		avg := averages.LeetCode.ProblemsSolved
		solved := student.LeetCode.ProblemsSolved
		comparison.LeetCode = &models.LeetCodeAverages{ProblemsSolved: models.ProblemAverages{
			Total:  percentDiff(float64(solved.Total), avg.Total),
			Easy:   percentDiff(float64(solved.Easy), avg.Easy),
			Medium: percentDiff(float64(solved.Medium), avg.Medium),
			Hard:   percentDiff(float64(solved.Hard), avg.Hard),
		}}
	}
	return comparison
}

func percentDiff(value, average float64) float64 {
	if average == 0 {
		return 0
	}
	return (value - average) / average * 100
}
