package fuzzing

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crytic/charybdis/fuzzing/config"
	"github.com/crytic/charybdis/fuzzing/corpus"
	"github.com/crytic/charybdis/fuzzing/handlers"
	"github.com/crytic/charybdis/fuzzing/properties"
	"github.com/crytic/charybdis/logging"
	"github.com/crytic/charybdis/logging/colors"
	"github.com/pkg/errors"
)

// metricsReportInterval is the period between campaign metrics log lines.
const metricsReportInterval = 3 * time.Second

// weightedHandler pairs a handler with its effective selection weight after configuration overrides.
type weightedHandler struct {
	handler *handlers.Handler
	weight  uint64
}

// Fuzzer represents a property fuzzing campaign against the rebasing vault.
type Fuzzer struct {
	// config describes the campaign configuration.
	config *config.ProjectConfig

	// logger describes the Fuzzer's log object.
	logger *logging.Logger

	// baseSeed is the campaign's resolved random seed.
	baseSeed int64

	// checker evaluates the oracle property set.
	checker *properties.Checker

	// weightedHandlers is the handler set after weight overrides, in stable order.
	weightedHandlers []weightedHandler

	// propertyCases maps property IDs to their test cases.
	propertyCases map[string]*PropertyTestCase

	// settlementCase tracks the post-sequence settlement check.
	settlementCase *SettlementTestCase

	// testCases lists every test case tracked by the campaign.
	testCases []TestCase

	// metrics describes campaign metrics.
	metrics *FuzzerMetrics

	// corpus persists shrunken failing sequences, or nil if persistence is disabled.
	corpus *corpus.Corpus

	// ctx describes the campaign context, used to signal campaign exit.
	ctx           context.Context
	ctxCancelFunc context.CancelFunc

	// Events describes the event system for the Fuzzer.
	Events FuzzerEvents
}

// NewFuzzer creates a Fuzzer for the provided project configuration.
func NewFuzzer(projectConfig config.ProjectConfig) (*Fuzzer, error) {
	if err := projectConfig.Validate(); err != nil {
		return nil, err
	}
	if projectConfig.Logging.NoColor {
		colors.DisableColor()
	}

	logger := logging.NewLogger(projectConfig.Logging.Level, true)
	if projectConfig.Logging.LogDirectory != "" {
		if err := os.MkdirAll(projectConfig.Logging.LogDirectory, 0755); err != nil {
			return nil, errors.Wrap(err, "could not create log directory")
		}
		file, err := os.Create(filepath.Join(projectConfig.Logging.LogDirectory, "charybdis.log"))
		if err != nil {
			return nil, errors.Wrap(err, "could not create log file")
		}
		logger.AddWriter(file, logging.STRUCTURED)
	}
	logging.GlobalLogger = logger

	baseSeed := projectConfig.Fuzzing.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	weightedHandlers, err := resolveHandlerWeights(projectConfig.Fuzzing.HandlerWeights)
	if err != nil {
		return nil, err
	}

	fuzzer := &Fuzzer{
		config:           &projectConfig,
		logger:           logger,
		baseSeed:         baseSeed,
		checker:          properties.NewChecker(),
		weightedHandlers: weightedHandlers,
		propertyCases:    make(map[string]*PropertyTestCase),
		settlementCase:   newSettlementTestCase(),
		metrics:          newFuzzerMetrics(projectConfig.Fuzzing.Workers),
	}

	for _, property := range fuzzer.checker.Properties() {
		testCase := newPropertyTestCase(property)
		fuzzer.propertyCases[property.ID] = testCase
		fuzzer.testCases = append(fuzzer.testCases, testCase)
	}
	fuzzer.testCases = append(fuzzer.testCases, fuzzer.settlementCase)

	// Attach the campaign's own event consumers: lifecycle logging, sequence metrics, and fail-fast handling.
	fuzzer.Events.FuzzerStarting.Subscribe(fuzzer.onFuzzerStarting)
	fuzzer.Events.FuzzerStopping.Subscribe(fuzzer.onFuzzerStopping)
	fuzzer.Events.WorkerCreated.Subscribe(fuzzer.onWorkerCreated)
	fuzzer.Events.WorkerDestroyed.Subscribe(fuzzer.onWorkerDestroyed)
	fuzzer.Events.TestCaseFailed.Subscribe(fuzzer.onTestCaseFailed)

	if projectConfig.Fuzzing.CorpusDirectory != "" {
		fuzzer.corpus, err = corpus.OpenCorpus(projectConfig.Fuzzing.CorpusDirectory)
		if err != nil {
			return nil, err
		}
	}
	return fuzzer, nil
}

// resolveHandlerWeights applies configured weight overrides to the full handler set. A zero weight removes a
// handler; naming an unknown handler is a configuration error.
func resolveHandlerWeights(overrides map[string]uint64) ([]weightedHandler, error) {
	known := make(map[string]bool)
	var weighted []weightedHandler
	for _, handler := range handlers.All() {
		known[handler.ID] = true
		weight := handler.Weight
		if override, ok := overrides[handler.ID]; ok {
			weight = override
		}
		if weight > 0 {
			weighted = append(weighted, weightedHandler{handler: handler, weight: weight})
		}
	}
	for id := range overrides {
		if !known[id] {
			return nil, errors.Errorf("handler weight configured for unknown handler %q", id)
		}
	}
	if len(weighted) == 0 {
		return nil, errors.New("handler weight overrides removed every handler")
	}
	return weighted, nil
}

// onFuzzerStarting logs the campaign parameters when the campaign begins.
func (f *Fuzzer) onFuzzerStarting(event FuzzerStartingEvent) error {
	f.logger.Info("Fuzzing with ", colors.Bold(f.config.Fuzzing.Workers), " workers over ",
		colors.Bold(len(f.testCases)), " test cases (seed: ", colors.Bold(f.baseSeed), ")")
	return nil
}

// onFuzzerStopping logs the campaign loop exit.
func (f *Fuzzer) onFuzzerStopping(event FuzzerStoppingEvent) error {
	f.logger.Debug("Campaign loop exiting")
	return nil
}

// onWorkerCreated attaches the Fuzzer's consumers to a new worker's event system.
func (f *Fuzzer) onWorkerCreated(event FuzzerWorkerCreatedEvent) error {
	event.Worker.Events.SequenceTested.Subscribe(f.onWorkerSequenceTested)
	return nil
}

// onWorkerDestroyed logs a worker's exit.
func (f *Fuzzer) onWorkerDestroyed(event FuzzerWorkerDestroyedEvent) error {
	f.logger.Debug("Worker ", event.Worker.workerIndex, " exited")
	return nil
}

// onWorkerSequenceTested updates the worker's sequence metrics when it finishes testing a call sequence.
func (f *Fuzzer) onWorkerSequenceTested(event FuzzerWorkerSequenceTestedEvent) error {
	metrics := event.Worker.metrics
	metrics.sequencesTested.Add(metrics.sequencesTested, big.NewInt(1))
	return nil
}

// onTestCaseFailed logs a concluded test case failure and stops the campaign when fail-fast is configured.
func (f *Fuzzer) onTestCaseFailed(event TestCaseFailedEvent) error {
	f.logger.Error("Test failed: ", event.TestCase.Name(), "\n", event.TestCase.Message())
	if f.config.Fuzzing.StopOnFailedTest {
		f.Stop()
	}
	return nil
}

// Logger returns the Fuzzer's log object.
func (f *Fuzzer) Logger() *logging.Logger {
	return f.logger
}

// TestCases returns every test case tracked by the campaign.
func (f *Fuzzer) TestCases() []TestCase {
	return f.testCases
}

// TestCasesWithStatus returns the tracked test cases currently in the provided status.
func (f *Fuzzer) TestCasesWithStatus(status TestCaseStatus) []TestCase {
	var matched []TestCase
	for _, testCase := range f.testCases {
		if testCase.Status() == status {
			matched = append(matched, testCase)
		}
	}
	return matched
}

// Metrics returns the campaign metrics.
func (f *Fuzzer) Metrics() *FuzzerMetrics {
	return f.metrics
}

// BaseSeed returns the campaign's resolved random seed.
func (f *Fuzzer) BaseSeed() int64 {
	return f.baseSeed
}

// callTestingLimitReached reports whether the configured test limit has been reached.
func (f *Fuzzer) callTestingLimitReached() bool {
	limit := f.config.Fuzzing.TestLimit
	return limit > 0 && f.metrics.CallsTested().Uint64() >= limit
}

// Stop signals the campaign to exit. Safe to call from any goroutine, multiple times.
func (f *Fuzzer) Stop() {
	if f.ctxCancelFunc != nil {
		f.ctxCancelFunc()
	}
}

// Start runs the fuzzing campaign to completion: it spawns the configured workers, reports metrics
// periodically, and blocks until the campaign exits. Returns an error only for fatal harness failures; property
// results are inspected through TestCases.
func (f *Fuzzer) Start() error {
	f.ctx, f.ctxCancelFunc = context.WithCancel(context.Background())
	defer f.ctxCancelFunc()

	if f.config.Fuzzing.Timeout > 0 {
		f.logger.Info("Running with a timeout of ", colors.Bold(fmt.Sprintf("%d seconds", f.config.Fuzzing.Timeout)))
		timer := time.AfterFunc(time.Duration(f.config.Fuzzing.Timeout)*time.Second, f.Stop)
		defer timer.Stop()
	}

	for _, testCase := range f.propertyCases {
		testCase.markRunning()
	}
	f.settlementCase.markRunning()

	if err := f.Events.FuzzerStarting.Publish(FuzzerStartingEvent{Fuzzer: f}); err != nil {
		return errors.Wrap(err, "FuzzerStarting event subscriber returned an error")
	}

	// Run the metrics reporting loop until the campaign exits.
	go f.runMetricsLoop(f.ctx)

	// Spawn workers, each with a seed derived from the campaign's base seed so campaigns reproduce.
	var waitGroup sync.WaitGroup
	workerErrs := make([]error, f.config.Fuzzing.Workers)
	for i := 0; i < f.config.Fuzzing.Workers; i++ {
		worker := newFuzzerWorker(f, i, f.baseSeed+int64(i)*6364136223846793005)
		if err := f.Events.WorkerCreated.Publish(FuzzerWorkerCreatedEvent{Worker: worker}); err != nil {
			return errors.Wrap(err, "WorkerCreated event subscriber returned an error")
		}

		waitGroup.Add(1)
		go func(workerIndex int, worker *FuzzerWorker) {
			defer waitGroup.Done()
			defer func() {
				_ = f.Events.WorkerDestroyed.Publish(FuzzerWorkerDestroyedEvent{Worker: worker})
			}()
			if err := worker.run(f.ctx); err != nil {
				workerErrs[workerIndex] = err
				f.Stop()
			}
		}(i, worker)
	}
	waitGroup.Wait()

	var fatalErr error
	for _, err := range workerErrs {
		if err != nil {
			fatalErr = err
			break
		}
	}

	// Anything still running when the campaign exits cleanly has passed.
	if fatalErr == nil {
		for _, testCase := range f.propertyCases {
			testCase.markPassed()
		}
		f.settlementCase.markPassed()
	}

	if err := f.Events.FuzzerStopping.Publish(FuzzerStoppingEvent{Fuzzer: f, Err: fatalErr}); err != nil && fatalErr == nil {
		fatalErr = errors.Wrap(err, "FuzzerStopping event subscriber returned an error")
	}

	if f.corpus != nil {
		if err := f.corpus.Close(); err != nil && fatalErr == nil {
			fatalErr = err
		}
	}

	f.printExitingResults()
	if fatalErr != nil {
		f.logger.Error("Fuzzer encountered a fatal error", fatalErr)
	}
	return fatalErr
}

// runMetricsLoop logs campaign metrics periodically until the provided context is cancelled.
func (f *Fuzzer) runMetricsLoop(ctx context.Context) {
	startTime := time.Now()
	ticker := time.NewTicker(metricsReportInterval)
	defer ticker.Stop()

	lastCallsTested := f.metrics.CallsTested()
	lastReportTime := startTime
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		callsTested := f.metrics.CallsTested()
		now := time.Now()
		callsPerSecond := new(big.Float).Quo(
			new(big.Float).SetInt(new(big.Int).Sub(callsTested, lastCallsTested)),
			big.NewFloat(now.Sub(lastReportTime).Seconds()),
		)
		lastCallsTested = callsTested
		lastReportTime = now

		logBuffer := []any{
			"elapsed: ", colors.Bold(fmt.Sprintf("%vs", int(now.Sub(startTime).Seconds()))),
			", calls: ", colors.Bold(callsTested),
			" (", colors.Bold(fmt.Sprintf("%.0f/sec", callsPerSecond)), ")",
			", sequences: ", colors.Bold(f.metrics.SequencesTested()),
			", failures: ", colors.Bold(f.metrics.FailedSequences()),
		}
		if shrinking := f.metrics.WorkersShrinkingCount(); shrinking > 0 {
			logBuffer = append(logBuffer, ", shrinking: ", colors.Bold(shrinking))
		}
		f.logger.Info(logBuffer...)
	}
}

// printExitingResults prints the test case results whenever the campaign exits.
func (f *Fuzzer) printExitingResults() {
	f.logger.Info("Test summary: ", colors.GreenBold(len(f.TestCasesWithStatus(TestCaseStatusPassed))),
		" test(s) passed, ", colors.RedBold(len(f.TestCasesWithStatus(TestCaseStatusFailed))), " test(s) failed")

	for _, testCase := range f.testCases {
		switch testCase.Status() {
		case TestCaseStatusPassed:
			f.logger.Info(colors.GreenBold("[PASSED] "), testCase.Name())
		case TestCaseStatusFailed:
			f.logger.Info(colors.RedBold("[FAILED] "), testCase.Name(), "\n", testCase.Message())
		default:
			f.logger.Info(colors.YellowBold(fmt.Sprintf("[%s] ", testCase.Status())), testCase.Name())
		}
	}
}
