package models

// SeverityStat is one row of the severity breakdown.
type SeverityStat struct {
	ID         Severity `json:"_id" gorm:"column:id"`
	Count      int64    `json:"count"`
	AvgUpvotes float64  `json:"avgUpvotes"`
	AvgViews   float64  `json:"avgViews"`
}

// DifficultyStat is one row of the difficulty breakdown.
type DifficultyStat struct {
	ID         Difficulty `json:"_id" gorm:"column:id"`
	Count      int64      `json:"count"`
	AvgUpvotes float64    `json:"avgUpvotes"`
}

// Analytics is the admin dashboard summary.
type Analytics struct {
	TotalProblems     int64            `json:"totalProblems"`
	SolvedProblems    int64            `json:"solvedProblems"`
	CanonicalProblems int64            `json:"canonicalProblems"`
	SolveRate         float64          `json:"solveRate"`
	SeverityStats     []SeverityStat   `json:"severityStats"`
	DifficultyStats   []DifficultyStat `json:"difficultyStats"`
	TotalUsers        int64            `json:"totalUsers"`
	TotalAnswers      int64            `json:"totalAnswers"`
	TotalVotes        int64            `json:"totalVotes"`
}
