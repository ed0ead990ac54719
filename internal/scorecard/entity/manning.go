package entity

import "time"

// ManningForecastEntry 人力负荷预测（每人每周一条）
type ManningForecastEntry struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID     string    `json:"project_id" gorm:"size:32;not null;uniqueIndex:idx_manning_person_week"`
	PersonName    string    `json:"person_name" gorm:"size:100;not null;uniqueIndex:idx_manning_person_week"`
	WeekEnding    string    `json:"week_ending" gorm:"size:10;not null;uniqueIndex:idx_manning_person_week"`
	Position      string    `json:"position" gorm:"size:100;not null"`
	Discipline    string    `json:"discipline" gorm:"size:10;not null"`
	Function      string    `json:"function" gorm:"size:20;not null"`
	ForecastHours float64   `json:"forecast_hours" gorm:"not null"`
	HourlyRate    float64   `json:"hourly_rate" gorm:"type:decimal(10,2);not null"`
	ForecastCost  float64   `json:"forecast_cost" gorm:"type:decimal(15,2);not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"modified_date"`
}

func (ManningForecastEntry) TableName() string {
	return "manning_forecast"
}
