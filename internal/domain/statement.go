package domain

import "time"

// StatementLine is one stream's row in a daily statement.
type StatementLine struct {
	StreamID  string    `json:"streamId"`
	Direction Direction `json:"direction"`
	Streamed  Money     `json:"streamed"`
	Estimate
}

// Statement summarizes a portfolio for one UTC day.
type Statement struct {
	Owner           string          `json:"owner"`
	Date            time.Time       `json:"date"`
	GeneratedAt     time.Time       `json:"generatedAt"`
	Window          TimeWindow      `json:"window"`
	Earned          Money           `json:"earned"`
	Spent           Money           `json:"spent"`
	TotalEarned     Money           `json:"totalEarned"`
	EarnedThisCycle Money           `json:"earnedThisCycle"`
	Lines           []StatementLine `json:"lines"`
}
