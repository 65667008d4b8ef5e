//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	appconv "video-to-audio/application/conversion"
	"video-to-audio/cmd"
	"video-to-audio/domain/conversion"
	"video-to-audio/infrastructure/console"
	"video-to-audio/infrastructure/filesystem"

	"github.com/cucumber/godog"
	"github.com/rs/zerolog"
)

const corruptContent = "corrupt"

// fakeExtractor copies the source into the output and fails on corrupt sources
type fakeExtractor struct {
	mu      sync.Mutex
	calls   []string
	holdOn  string
	holdAll bool
	started chan struct{}
	release chan struct{}
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (f *fakeExtractor) Extract(ctx context.Context, item conversion.Item, outputPath string) error {
	name := filepath.Base(item.SourcePath)
	f.mu.Lock()
	f.calls = append(f.calls, name)
	hold := f.holdAll || f.holdOn == name
	f.mu.Unlock()

	if hold {
		f.started <- struct{}{}
		<-f.release
	}

	data, err := os.ReadFile(item.SourcePath)
	if err != nil {
		return err
	}
	if string(data) == corruptContent {
		return errors.New("invalid data found when processing input")
	}
	return os.WriteFile(outputPath, data, 0644)
}

func (f *fakeExtractor) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

// conversionContext holds test state for conversion scenarios
type conversionContext struct {
	sourceDir  string
	outputDir  string
	sources    []string
	format     string
	bitrate    string
	extractor  *fakeExtractor
	recorder   *console.Recorder
	controller *appconv.Controller
	handle     *appconv.Handle
	outcome    conversion.Outcome
	startErr   error
	secondErr  error
	output     *bytes.Buffer
	released   bool
}

// SharedConversionContext is reset before each scenario via Before hook
var SharedConversionContext *conversionContext

func getConversionContext() *conversionContext {
	return SharedConversionContext
}

func InitializeConversionScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		sourceDir, err := os.MkdirTemp("", "convert-src-*")
		if err != nil {
			return c, err
		}
		outputDir, err := os.MkdirTemp("", "convert-out-*")
		if err != nil {
			return c, err
		}
		recorder := console.NewRecorder(0)
		extractor := newFakeExtractor()
		SharedConversionContext = &conversionContext{
			sourceDir:  sourceDir,
			outputDir:  outputDir,
			format:     string(conversion.DefaultFormat),
			bitrate:    conversion.DefaultBitrate.String(),
			extractor:  extractor,
			recorder:   recorder,
			controller: appconv.NewController(extractor, filesystem.NewChecker(), recorder),
			output:     &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		s := getConversionContext()
		if s != nil {
			s.releaseExtractor()
			if s.handle != nil {
				s.wait()
			}
			os.RemoveAll(s.sourceDir)
			os.RemoveAll(s.outputDir)
		}
		SharedConversionContext = nil
		return c, nil
	})

	ctx.Step(`^an empty output directory$`, anEmptyOutputDirectory)
	ctx.Step(`^the output format is "([^"]*)" at "([^"]*)" kbps$`, theOutputFormatIsAtKbps)
	ctx.Step(`^source videos "([^"]*)"$`, sourceVideos)
	ctx.Step(`^"([^"]*)" is corrupt$`, isCorrupt)
	ctx.Step(`^I start the conversion$`, iStartTheConversion)
	ctx.Step(`^I try to start the conversion$`, iTryToStartTheConversion)
	ctx.Step(`^I start the conversion and cancel immediately$`, iStartTheConversionAndCancelImmediately)
	ctx.Step(`^I start the conversion and cancel during "([^"]*)"$`, iStartTheConversionAndCancelDuring)
	ctx.Step(`^I start a conversion that stays busy$`, iStartAConversionThatStaysBusy)
	ctx.Step(`^I try to start another conversion$`, iTryToStartAnotherConversion)
	ctx.Step(`^I run the convert command$`, iRunTheConvertCommand)
	ctx.Step(`^the events should be:$`, theEventsShouldBe)
	ctx.Step(`^the failure message should start with "([^"]*)"$`, theFailureMessageShouldStartWith)
	ctx.Step(`^the output directory should contain "([^"]*)"$`, theOutputDirectoryShouldContain)
	ctx.Step(`^the output directory should be empty$`, theOutputDirectoryShouldBeEmpty)
	ctx.Step(`^"([^"]*)" should not have been converted$`, shouldNotHaveBeenConverted)
	ctx.Step(`^the second conversion should be rejected because one is already in progress$`, theSecondConversionShouldBeRejected)
	ctx.Step(`^the conversion should be rejected with "([^"]*)"$`, theConversionShouldBeRejectedWith)
	ctx.Step(`^no events should have been published$`, noEventsShouldHaveBeenPublished)
	ctx.Step(`^the console output should contain "([^"]*)"$`, theConsoleOutputShouldContain)
}

func anEmptyOutputDirectory() error {
	entries, err := os.ReadDir(getConversionContext().outputDir)
	if err != nil {
		return err
	}
	if len(entries) != 0 {
		return fmt.Errorf("output directory is not empty")
	}
	return nil
}

func theOutputFormatIsAtKbps(format, bitrate string) error {
	s := getConversionContext()
	s.format = format
	s.bitrate = bitrate
	return nil
}

func sourceVideos(list string) error {
	s := getConversionContext()
	for _, name := range splitList(list) {
		path := filepath.Join(s.sourceDir, name)
		if err := os.WriteFile(path, []byte("video:"+name), 0644); err != nil {
			return err
		}
		s.sources = append(s.sources, path)
	}
	return nil
}

func isCorrupt(name string) error {
	return os.WriteFile(filepath.Join(getConversionContext().sourceDir, name), []byte(corruptContent), 0644)
}

func (s *conversionContext) input() appconv.Input {
	return appconv.Input{
		Sources:         s.sources,
		Format:          s.format,
		Bitrate:         s.bitrate,
		OutputDirectory: s.outputDir,
	}
}

func (s *conversionContext) start(ctx context.Context) error {
	s.handle, s.startErr = s.controller.Start(ctx, s.input())
	return s.startErr
}

func (s *conversionContext) wait() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	outcome, err := s.handle.Wait(ctx)
	if err != nil {
		return fmt.Errorf("conversion did not finish: %w", err)
	}
	s.outcome = outcome
	return nil
}

func (s *conversionContext) releaseExtractor() {
	if !s.released {
		s.released = true
		close(s.extractor.release)
	}
}

func (s *conversionContext) awaitExtraction() error {
	select {
	case <-s.extractor.started:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("extraction never started")
	}
}

func iStartTheConversion() error {
	s := getConversionContext()
	if err := s.start(context.Background()); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	return s.wait()
}

func iTryToStartTheConversion() error {
	s := getConversionContext()
	if err := s.start(context.Background()); err == nil {
		return s.wait()
	}
	return nil
}

func iStartTheConversionAndCancelImmediately() error {
	s := getConversionContext()

	// The worker sees the cancelled context before touching the first source
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.start(ctx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	s.controller.Cancel(s.handle)
	return s.wait()
}

func iStartTheConversionAndCancelDuring(name string) error {
	s := getConversionContext()
	s.extractor.holdOn = name

	if err := s.start(context.Background()); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	if err := s.awaitExtraction(); err != nil {
		return err
	}

	s.controller.Cancel(s.handle)
	s.releaseExtractor()
	return s.wait()
}

func iStartAConversionThatStaysBusy() error {
	s := getConversionContext()
	s.extractor.holdAll = true

	if err := s.start(context.Background()); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	return s.awaitExtraction()
}

func iTryToStartAnotherConversion() error {
	s := getConversionContext()
	_, s.secondErr = s.controller.Start(context.Background(), s.input())
	return nil
}

func iRunTheConvertCommand() error {
	s := getConversionContext()
	_, err := cmd.RunConvertWithDependencies(
		context.Background(),
		s.extractor,
		filesystem.NewChecker(),
		s.input(),
		nil,
		s.output,
		zerolog.Nop(),
	)
	return err
}

func theEventsShouldBe(table *godog.Table) error {
	events := getConversionContext().recorder.Events()
	rows := table.Rows[1:]
	if len(events) != len(rows) {
		return fmt.Errorf("expected %d events, got %d: %s", len(rows), len(events), describeEvents(events))
	}

	for i, row := range rows {
		kind := row.Cells[0].Value
		got := events[i]
		if got.Seq != int64(i+1) {
			return fmt.Errorf("event %d: expected seq %d, got %d", i, i+1, got.Seq)
		}

		if kind == "progress" {
			if got.Progress == nil {
				return fmt.Errorf("event %d: expected progress, got %s", i, describeEvents(events[i:i+1]))
			}
			want := [3]string{row.Cells[1].Value, row.Cells[2].Value, row.Cells[3].Value}
			have := [3]string{
				strconv.Itoa(got.Progress.Completed),
				strconv.Itoa(got.Progress.Total),
				strconv.Itoa(got.Progress.Percent()),
			}
			if want != have {
				return fmt.Errorf("event %d: expected progress %v, got %v", i, want, have)
			}
			continue
		}

		if got.Outcome == nil || string(got.Outcome.Kind) != kind {
			return fmt.Errorf("event %d: expected %s outcome, got %s", i, kind, describeEvents(events[i:i+1]))
		}
	}
	return nil
}

func describeEvents(events []conversion.Event) string {
	var parts []string
	for _, e := range events {
		switch {
		case e.Progress != nil:
			parts = append(parts, fmt.Sprintf("progress(%d/%d)", e.Progress.Completed, e.Progress.Total))
		case e.Outcome != nil:
			parts = append(parts, string(e.Outcome.Kind))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func theFailureMessageShouldStartWith(prefix string) error {
	s := getConversionContext()
	if s.outcome.Kind != conversion.OutcomeKindFailure {
		return fmt.Errorf("expected failure outcome, got %s", s.outcome.Kind)
	}
	if !strings.HasPrefix(s.outcome.Message, prefix) {
		return fmt.Errorf("expected message starting with %q, got %q", prefix, s.outcome.Message)
	}
	return nil
}

func theOutputDirectoryShouldContain(list string) error {
	want := splitList(list)
	got, err := outputFiles(getConversionContext().outputDir)
	if err != nil {
		return err
	}
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected output files %v, got %v", want, got)
	}
	return nil
}

func theOutputDirectoryShouldBeEmpty() error {
	got, err := outputFiles(getConversionContext().outputDir)
	if err != nil {
		return err
	}
	if len(got) != 0 {
		return fmt.Errorf("expected no output files, got %v", got)
	}
	return nil
}

func outputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func shouldNotHaveBeenConverted(name string) error {
	if getConversionContext().extractor.called(name) {
		return fmt.Errorf("expected %s to be skipped, but it was extracted", name)
	}
	return nil
}

func theSecondConversionShouldBeRejected() error {
	s := getConversionContext()
	if !errors.Is(s.secondErr, conversion.ErrJobActive) {
		return fmt.Errorf("expected ErrJobActive, got %v", s.secondErr)
	}
	if !errors.Is(s.secondErr, conversion.ErrInvalidRequest) {
		return fmt.Errorf("expected the error to be an invalid request, got %v", s.secondErr)
	}
	if s.controller.Active() != s.handle {
		return fmt.Errorf("the first conversion should still be active")
	}
	return nil
}

func theConversionShouldBeRejectedWith(reason string) error {
	s := getConversionContext()
	if s.startErr == nil {
		return fmt.Errorf("expected the request to be rejected")
	}
	if !errors.Is(s.startErr, conversion.ErrInvalidRequest) {
		return fmt.Errorf("expected an invalid request error, got %v", s.startErr)
	}
	if !strings.Contains(s.startErr.Error(), reason) {
		return fmt.Errorf("expected error containing %q, got %q", reason, s.startErr.Error())
	}
	return nil
}

func noEventsShouldHaveBeenPublished() error {
	if events := getConversionContext().recorder.Events(); len(events) != 0 {
		return fmt.Errorf("expected no events, got %s", describeEvents(events))
	}
	return nil
}

func theConsoleOutputShouldContain(text string) error {
	out := getConversionContext().output.String()
	if !strings.Contains(out, text) {
		return fmt.Errorf("expected console output to contain %q, got:\n%s", text, out)
	}
	return nil
}

func splitList(list string) []string {
	var items []string
	for _, part := range strings.Split(list, ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	return items
}
