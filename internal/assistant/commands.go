package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// HandleCommand processes inbound chat commands. Scan and train run in the
// background on ctx; their result arrives through the notifier.
func (a *Assistant) HandleCommand(ctx context.Context, cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return ""
	}

	// "/scan@MyBot" is how groups address a bot.
	name := strings.ToLower(strings.SplitN(parts[0], "@", 2)[0])

	switch name {
	case "/start":
		return a.getWelcome()
	case "/help":
		return a.getHelp()
	case "/ping":
		return "Pong"
	case "/status":
		return a.getStatus()
	case "/scan":
		return a.handleScanCommand(ctx, parts)
	case "/train":
		return a.handleTrainCommand(ctx, parts)
	case "/advise":
		return a.handleAdviseCommand(ctx, parts)
	default:
		return "Unknown command. Try /scan, /train, /advise, /status or /help."
	}
}

func (a *Assistant) handleScanCommand(ctx context.Context, parts []string) string {
	if len(parts) > 1 {
		return "Usage: /scan"
	}
	if err := a.StartScan(ctx); err != nil {
		return a.busyMessage(err)
	}
	return fmt.Sprintf("Scanning %d assets for momentum opportunities. Results will follow.", len(a.opts.Universe))
}

func (a *Assistant) handleTrainCommand(ctx context.Context, parts []string) string {
	all := false
	for _, p := range parts[1:] {
		switch strings.ToLower(p) {
		case "--all", "all":
			all = true
		default:
			return "Usage: /train [--all]"
		}
	}

	if !all {
		// Fail fast instead of starting a job with nothing to do.
		if _, err := a.deps.Candidates.Load(); err != nil {
			return FormatError(err)
		}
	}

	if err := a.StartTrain(ctx, all); err != nil {
		return a.busyMessage(err)
	}
	if all {
		return "Training started for ALL watchlist assets. This can take a long time."
	}
	return "Training started for today's candidates."
}

func (a *Assistant) handleAdviseCommand(ctx context.Context, parts []string) string {
	asset, ok := parseAdviseArgs(parts[1:])
	if !ok {
		return "Usage: /advise [asset] or /advise --asset <asset>"
	}

	rep, err := a.Advise(ctx, asset)
	if err != nil {
		return FormatError(err)
	}
	return rep.String()
}

// parseAdviseArgs accepts "", "X", "--asset X" and "--asset=X", the flag
// matched case-insensitively.
func parseAdviseArgs(args []string) (string, bool) {
	var asset string
	switch len(args) {
	case 0:
		return "", true
	case 1:
		arg := args[0]
		if len(arg) >= len("--asset=") && strings.EqualFold(arg[:len("--asset=")], "--asset=") {
			asset = arg[len("--asset="):]
		} else if strings.HasPrefix(arg, "-") {
			return "", false
		} else {
			asset = arg
		}
	case 2:
		if !strings.EqualFold(args[0], "--asset") {
			return "", false
		}
		asset = args[1]
	default:
		return "", false
	}

	asset = strings.ToUpper(strings.TrimSpace(asset))
	if asset == "" {
		return "", false
	}
	return asset, true
}

func (a *Assistant) busyMessage(err error) string {
	if errors.Is(err, ErrBusy) {
		return fmt.Sprintf("A %s job is already running. Try again when it completes.", a.Running())
	}
	return FormatError(err)
}

func (a *Assistant) getWelcome() string {
	var sb strings.Builder
	sb.WriteString("Hello! I am your swing trading assistant.\n\n")
	sb.WriteString("Typical day: /scan to find candidates, /train to fit their models, /advise for recommendations.\n\n")
	sb.WriteString(a.getHelp())
	return sb.String()
}

func (a *Assistant) getHelp() string {
	var sb strings.Builder
	sb.WriteString("SWING ADVISOR COMMANDS\n\n")
	for _, cmd := range a.commands {
		sb.WriteString(fmt.Sprintf("%s - %s\n  %s\n", cmd.Name, cmd.Description, cmd.Example))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (a *Assistant) getStatus() string {
	a.mu.Lock()
	running, started := a.running, a.jobStarted
	lastScan, lastTrain := a.lastScan, a.lastTrain
	a.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("STATUS\n")
	if running != "" {
		sb.WriteString(fmt.Sprintf("Running: %s (for %s)\n", running, time.Since(started).Round(time.Second)))
	} else {
		sb.WriteString("Running: idle\n")
	}
	sb.WriteString(fmt.Sprintf("Last scan: %s\n", formatTime(lastScan)))
	sb.WriteString(fmt.Sprintf("Last training: %s\n", formatTime(lastTrain)))

	if cands, err := a.deps.Candidates.Load(); err == nil {
		sb.WriteString(fmt.Sprintf("Candidates: %s\n", strings.Join(cands, ", ")))
	} else {
		sb.WriteString("Candidates: none\n")
	}
	sb.WriteString(fmt.Sprintf("Watchlist: %d assets\n", len(a.opts.Universe)))
	sb.WriteString(fmt.Sprintf("Uptime: %s", time.Since(startTime).Round(time.Second)))
	return sb.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04")
}
