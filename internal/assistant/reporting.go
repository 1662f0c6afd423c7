package assistant

import (
	"fmt"
	"strings"

	"swing_advisor/internal/advisor"
	"swing_advisor/internal/models"
)

type ScanReport struct {
	Universe   int
	TopN       int
	Candidates []string
	File       string
}

func (r *ScanReport) String() string {
	if len(r.Candidates) == 0 {
		return "No clear opportunity found today under the momentum criteria. The candidates list was cleared."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("--- Top %d swing trading opportunities for today ---\n", r.TopN))
	for _, c := range r.Candidates {
		sb.WriteString(fmt.Sprintf("- %s\n", c))
	}
	sb.WriteString(fmt.Sprintf("\nList saved to '%s'. You can now train these models with 'train' or get advice with 'advise'.", r.File))
	return sb.String()
}

type TrainStatus string

const (
	TrainOK      TrainStatus = "trained"
	TrainSkipped TrainStatus = "skipped"
	TrainFailed  TrainStatus = "failed"
)

type TrainResult struct {
	Ticker string
	Status TrainStatus
	Path   string
	Return float64 // episode return of the saved policy on its training series
	Err    error
}

type TrainReport struct {
	RunID   string
	All     bool
	Results []TrainResult
}

// Trained counts the assets whose model was saved.
func (r *TrainReport) Trained() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == TrainOK {
			n++
		}
	}
	return n
}

func (r *TrainReport) String() string {
	var sb strings.Builder
	for _, res := range r.Results {
		switch res.Status {
		case TrainOK:
			sb.WriteString(fmt.Sprintf("Model trained and saved for %s at %s (episode return %.2f)\n", res.Ticker, res.Path, res.Return))
		case TrainSkipped:
			sb.WriteString(fmt.Sprintf("Insufficient data for %s, training skipped.\n", res.Ticker))
		default:
			sb.WriteString(fmt.Sprintf("Training failed for %s: %v\n", res.Ticker, res.Err))
		}
	}
	sb.WriteString(fmt.Sprintf("\nTraining complete (%d/%d models, run %s).", r.Trained(), len(r.Results), r.RunID))
	return sb.String()
}

type AdviceItem struct {
	Ticker string
	Advice *models.Advice
	Err    error
}

type AdviceReport struct {
	Single bool
	Items  []AdviceItem
}

func (r *AdviceReport) String() string {
	var sb strings.Builder
	sb.WriteString("--- AI advice ---\n")
	for _, it := range r.Items {
		sb.WriteString("\n")
		if it.Err != nil {
			sb.WriteString(FormatError(it.Err))
		} else {
			sb.WriteString(advisor.Format(it.Advice))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
