package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"food-tourism-assistant/internal/classifier"
)

// ClassificationMetric records one classifier invocation.
type ClassificationMetric struct {
	Backend    string
	Label      string
	Confidence float64
	Accepted   bool
	LatencyMS  int64
	Timestamp  time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db      *sql.DB
	backend string
}

// NewStore initializes the Store with an existing database connection.
// backend names the classifier recorded with each metric.
func NewStore(db *sql.DB, backend string) *Store {
	return &Store{db: db, backend: backend}
}

// Record saves a metric to the database.
func (s *Store) Record(m ClassificationMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	backend := m.Backend
	if backend == "" {
		backend = s.backend
	}

	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO classification_metrics (backend, label, confidence, accepted, latency_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		backend, m.Label, m.Confidence, m.Accepted, m.LatencyMS, ts.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert classification metric: %w", err)
	}
	return nil
}

// RecordClassification records a prediction made by the store's backend.
func (s *Store) RecordClassification(pred classifier.Prediction, accepted bool, latency time.Duration) error {
	return s.Record(ClassificationMetric{
		Label:      pred.Label,
		Confidence: pred.Confidence,
		Accepted:   accepted,
		LatencyMS:  latency.Milliseconds(),
	})
}

const timeLayout = "2006-01-02 15:04:05"

// DailyUsage summarizes classifications for a single day.
type DailyUsage struct {
	Date          string
	Total         int
	Accepted      int
	AvgConfidence float64
	AvgLatencyMS  float64
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT substr(timestamp, 1, 10) AS day, COUNT(*), SUM(accepted), AVG(confidence), AVG(latency_ms)
		FROM classification_metrics
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.Total, &u.Accepted, &u.AvgConfidence, &u.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// TopLabels returns the most frequently accepted labels of the last N days.
func (s *Store) TopLabels(days, limit int) ([]string, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT label FROM classification_metrics
		WHERE accepted = 1 AND timestamp >= ?
		GROUP BY label
		ORDER BY COUNT(*) DESC, label ASC
		LIMIT ?`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(timeLayout)
	res, err := s.db.ExecContext(context.Background(),
		`DELETE FROM classification_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	return res.RowsAffected()
}
