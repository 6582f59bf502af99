package usecase

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Stats は1回の同期実行の集計結果です。
type Stats struct {
	Flow       string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	Found     int // 取り込み元の行数
	Existing  int // 照合対象の既存レコード数
	Processed int
	Updated   int
	Created   int
	Skipped   int
	Failed    int
	APICalls  int

	Stopped    bool // レート制限などで途中終了した
	StopReason string
	Success    bool
	LastError  string
}

// Elapsed は実行時間を返します。
func (s *Stats) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// stop は途中終了を理由とともに記録します。
func (s *Stats) stop(reason string) {
	s.Stopped = true
	s.StopReason = reason
}

func (s *Stats) recordError(err error) {
	if err != nil {
		s.LastError = err.Error()
	}
}

// LogValue は slog 出力用の属性をまとめて返します。
func (s *Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("flow", s.Flow),
		slog.Bool("dry_run", s.DryRun),
		slog.Int("found", s.Found),
		slog.Int("existing", s.Existing),
		slog.Int("processed", s.Processed),
		slog.Int("updated", s.Updated),
		slog.Int("created", s.Created),
		slog.Int("skipped", s.Skipped),
		slog.Int("failed", s.Failed),
		slog.Int("api_calls", s.APICalls),
		slog.Bool("stopped", s.Stopped),
		slog.String("stop_reason", s.StopReason),
		slog.Bool("success", s.Success),
		slog.Duration("elapsed", s.Elapsed()),
	)
}

// WriteSummary は固定フォーマットの集計レポートを書き出します。
func (s *Stats) WriteSummary(w io.Writer) error {
	line := strings.Repeat("=", 60)
	status := "SUCCESS"
	if !s.Success {
		status = "FAILED"
	}
	mode := "LIVE"
	if s.DryRun {
		mode = "DRY RUN"
	}

	var b strings.Builder
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "%s STATISTICS (%s)\n", strings.ToUpper(s.Flow), mode)
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Duration:  %.1fs\n", s.Elapsed().Seconds())
	fmt.Fprintf(&b, "Found:     %d\n", s.Found)
	fmt.Fprintf(&b, "Existing:  %d\n", s.Existing)
	fmt.Fprintf(&b, "Processed: %d\n", s.Processed)
	fmt.Fprintf(&b, "Updated:   %d\n", s.Updated)
	fmt.Fprintf(&b, "Created:   %d\n", s.Created)
	fmt.Fprintf(&b, "Skipped:   %d\n", s.Skipped)
	fmt.Fprintf(&b, "Failed:    %d\n", s.Failed)
	if s.APICalls > 0 {
		fmt.Fprintf(&b, "API Calls: %d\n", s.APICalls)
	}
	if s.Stopped {
		reason := s.StopReason
		if reason == "" {
			reason = "stopped early"
		}
		fmt.Fprintf(&b, "Stopped:   %s\n", reason)
	}
	fmt.Fprintf(&b, "Status:    %s\n", status)
	if s.LastError != "" {
		fmt.Fprintf(&b, "Error:     %s\n", s.LastError)
	}
	fmt.Fprintln(&b, line)

	_, err := io.WriteString(w, b.String())
	return err
}
