package models

// Season is a growing season (mùa vụ).
type Season struct {
	ID        string `json:"_id"`
	Name      string `json:"tenMuaVu"`
	StartDate string `json:"ngayBatDau"` // DD-MM-YYYY
	EndDate   string `json:"ngayKetThuc,omitempty"`
}

// Stage is a production stage (giai đoạn) within a season.
type Stage struct {
	ID    string `json:"_id"`
	Name  string `json:"tenGiaiDoan"`
	Order int    `json:"thuTu"`
}

// Task is a work-task type (công việc) performed during a stage.
type Task struct {
	ID      string `json:"_id"`
	Name    string `json:"tenCongViec"`
	StageID string `json:"giaiDoan"`
}
