package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"eduassist/internal/api"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildJobRows(items []api.Job) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]api.Job, len(items))
	copy(sorted, items)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	rows := make([][]string, 0, len(sorted))
	for _, job := range sorted {
		topic := strings.TrimSpace(job.Topic)
		if topic == "" {
			topic = "Untitled"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", job.ID),
			formatStatusLabel(job.Kind),
			topic,
			formatStatusLabel(job.Status),
			formatDisplayTime(job.CreatedAt),
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format("2006-01-02 15:04")
}
