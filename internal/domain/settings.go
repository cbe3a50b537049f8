package domain

import (
	"sort"
	"time"
)

type NotificationPreferences struct {
	PaymentReminderDays []int32 `json:"payment_reminder_days"`
	RentalReminderDays  []int32 `json:"rental_reminder_days"`
	ReturnReminderDays  []int32 `json:"return_reminder_days"`
	EmailEnabled        bool    `json:"email_enabled"`
	PushEnabled         bool    `json:"push_enabled"`
}

type BusinessSettings struct {
	AutoApproveRequests bool  `json:"auto_approve_requests"`
	MinRentalDays       int32 `json:"min_rental_days"`
	MaxRentalDays       int32 `json:"max_rental_days"`
}

type Settings struct {
	UserID                  int32                   `json:"user_id"`
	NotificationPreferences NotificationPreferences `json:"notification_preferences"`
	BusinessSettings        BusinessSettings        `json:"business_settings"`
	UpdatedAt               time.Time               `json:"updated_at"`
}

// DefaultSettings is the single source of default preferences. It backs lazy
// creation, reset and every read that finds no stored settings.
func DefaultSettings(userID int32) *Settings {
	return &Settings{
		UserID: userID,
		NotificationPreferences: NotificationPreferences{
			PaymentReminderDays: []int32{7, 3, 1},
			RentalReminderDays:  []int32{1},
			ReturnReminderDays:  []int32{1},
			EmailEnabled:        true,
			PushEnabled:         false,
		},
		BusinessSettings: BusinessSettings{
			AutoApproveRequests: false,
			MinRentalDays:       1,
			MaxRentalDays:       365,
		},
	}
}

// NormalizeReminderDays drops non-positive and duplicate offsets and sorts descending
func NormalizeReminderDays(days []int32) []int32 {
	seen := make(map[int32]bool, len(days))
	out := make([]int32, 0, len(days))
	for _, d := range days {
		if d <= 0 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}
