// Command plan_dryrun proposes a weekly plan against a running API and
// prints the draft without applying it. Intended for operators checking
// what the packer would do for a family before parents see the proposal.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type proposeRequest struct {
	FamilyID     string   `json:"familyId"`
	WeekStart    string   `json:"weekStart"`
	LearnerIDs   []string `json:"learnerIds,omitempty"`
	HorizonWeeks int      `json:"horizonWeeks,omitempty"`
	Mode         string   `json:"mode,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

type changeView struct {
	ID         string `json:"id"`
	ChangeType string `json:"changeType"`
	Payload    struct {
		LearnerID string    `json:"learner_id"`
		SubjectID *string   `json:"subject_id"`
		Title     string    `json:"title"`
		Start     time.Time `json:"start"`
		End       time.Time `json:"end"`
		Minutes   int       `json:"minutes"`
	} `json:"payload"`
}

type proposeResponse struct {
	PlanID    string       `json:"planId"`
	Status    string       `json:"status"`
	WeekStart string       `json:"weekStart"`
	Changes   []changeView `json:"changes"`
	Summary   struct {
		Adds           int `json:"adds"`
		MinutesPlanned int `json:"minutesPlanned"`
		UnmetNeeds     int `json:"unmetNeeds"`
	} `json:"summary"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base     string
		familyID string
		week     string
		learners string
		horizon  int
		mode     string
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&familyID, "family", "", "Family ID to plan for")
	flag.StringVar(&week, "week", nextMonday().Format("2006-01-02"), "Week start (YYYY-MM-DD, a Monday)")
	flag.StringVar(&learners, "learners", "", "Comma-separated learner IDs (default: whole family)")
	flag.IntVar(&horizon, "horizon", 0, "Horizon in weeks (default: server setting)")
	flag.StringVar(&mode, "mode", "what_if", "Planning mode: rebalance, pack_week or what_if")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if familyID == "" {
		log.Fatal("missing required -family flag")
	}

	req := proposeRequest{
		FamilyID:     familyID,
		WeekStart:    week,
		HorizonWeeks: horizon,
		Mode:         mode,
		Reason:       "dry run",
	}
	if learners != "" {
		req.LearnerIDs = strings.Split(learners, ",")
	}

	resp, elapsed, err := propose(&http.Client{Timeout: timeout}, base, req)
	if err != nil {
		log.Fatalf("propose failed: %v", err)
	}

	printReport(resp, elapsed)
	if resp.Summary.UnmetNeeds > 0 {
		os.Exit(1)
	}
}

func nextMonday() time.Time {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (8 - int(day.Weekday())) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}

func propose(client *http.Client, base string, req proposeRequest) (*proposeResponse, time.Duration, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, 0, err
	}
	url := strings.TrimRight(base, "/") + "/api/plans/propose"

	start := time.Now()
	httpResp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	defer httpResp.Body.Close()
	elapsed := time.Since(start)

	var env envelope
	if err := json.NewDecoder(httpResp.Body).Decode(&env); err != nil {
		return nil, elapsed, fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil {
		return nil, elapsed, fmt.Errorf("%s: %s (HTTP %d)", env.Error.Code, env.Error.Message, httpResp.StatusCode)
	}

	var out proposeResponse
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, elapsed, fmt.Errorf("decode plan: %w", err)
	}
	return &out, elapsed, nil
}

func printReport(resp *proposeResponse, elapsed time.Duration) {
	fmt.Println("Plan Dry Run Report")
	fmt.Println("===================")
	fmt.Printf("Plan: %s (%s) for week %s, proposed in %s\n", resp.PlanID, resp.Status, resp.WeekStart, elapsed)
	for _, change := range resp.Changes {
		subject := "-"
		if change.Payload.SubjectID != nil {
			subject = *change.Payload.SubjectID
		}
		title := change.Payload.Title
		if title == "" {
			title = "Study session"
		}
		fmt.Printf("[%s] %s | %s | %s | %s - %s | %d min\n",
			strings.ToUpper(change.ChangeType), change.Payload.LearnerID, subject, title,
			change.Payload.Start.Format("Mon 15:04"), change.Payload.End.Format("15:04"), change.Payload.Minutes)
	}
	fmt.Printf("Adds: %d | Minutes planned: %d | Unmet needs: %d\n",
		resp.Summary.Adds, resp.Summary.MinutesPlanned, resp.Summary.UnmetNeeds)
}
