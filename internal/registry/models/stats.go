package models

import "time"

// Stats feeds the dashboard.
type Stats struct {
	TotalCambistes     int              `json:"totalCambistes"`
	TotalOperateurs    int              `json:"totalOperateurs"`
	TodayTotal         int              `json:"todayTotal"`
	ActiveAssociations int              `json:"activeAssociations"`
	ActivityStats      map[string]int   `json:"activityStats"`
	AssociationStats   []AssociationRow `json:"associationStats"`
	RecentActivities   []RecentActivity `json:"recentActivities"`
}

// AssociationRow counts traders per association name.
type AssociationRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RecentActivity is one line of the "latest registrations" feed.
type RecentActivity struct {
	ID                 int64     `json:"id"`
	NomPrenom          string    `json:"nomPrenom"`
	DateEnregistrement time.Time `json:"dateEnregistrement"`
	PhotoIDPath        *string   `json:"photoIDPath"`
	Type               string    `json:"type"`
}

const (
	ActivityTypeTrader   = "Cambiste"
	ActivityTypeOperator = "Opérateur"
)
