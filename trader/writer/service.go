package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lukehollenback/gander/constants"
	"github.com/lukehollenback/gander/trader"
	"github.com/lukehollenback/gander/trader/alpha"
)

const (
	Name     = "≪writer-service≫"
	FileName = "gander.csv"
)

var (
	logger *log.Logger

	header = []string{"Timestamp", "Symbol", "Kind", "Direction", "Period", "Source", "ID"}

	_ trader.Service = (*Service)(nil)
)

func init() {
	//
	// Initialize the logger.
	//
	logger = log.New(log.Writer(), fmt.Sprintf(constants.LogPrefixFmt, Name), log.Ldate|log.Ltime|log.Lmsgprefix)
}

//
// Service represents a service instance that records every emitted signal as a row of a CSV file.
//
type Service struct {
	mu         *sync.Mutex
	chKill     chan bool
	chStopped  chan bool
	outputDir  string
	outputFile *os.File
	writer     *csv.Writer
}

//
// New instantiates a writer service that will output to the specified directory.
//
func New(outputDir string) *Service {
	return &Service{
		mu:        &sync.Mutex{},
		outputDir: outputDir,
	}
}

// Path returns the file the service writes to.
func (o *Service) Path() string {
	return filepath.Join(o.outputDir, FileName)
}

//
// Start implements the trader.Service interface's described method.
//
func (o *Service) Start() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.outputFile != nil {
		return nil, errors.New("the writer service is already running")
	}

	//
	// (Re)initialize our instance variables.
	//
	o.chKill = make(chan bool, 1)
	o.chStopped = make(chan bool, 1)

	//
	// Create the output CSV file.
	//
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", o.outputDir, err)
	}

	outputFile, err := os.Create(o.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", o.Path(), err)
	}

	o.outputFile = outputFile

	logger.Printf("Outputting CSV to %s.", o.Path())

	//
	// Create the CSV writer and use it to write out the header row.
	//
	o.writer = csv.NewWriter(o.outputFile)

	if err := o.writer.Write(header); err != nil {
		return nil, err
	}

	//
	// Fire off a goroutine as the executor for the service.
	//
	go o.service()

	//
	// Return our "started" channel in case the caller wants to block on it and log some debug info.
	//
	chStarted := make(chan bool, 1)
	chStarted <- true

	logger.Printf("Started.")

	return chStarted, nil
}

//
// Stop implements the trader.Service interface's described method.
//
func (o *Service) Stop() (<-chan bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.outputFile == nil {
		return nil, errors.New("the writer service is not running")
	}

	logger.Printf("Stopping...")

	//
	// Tell the goroutines that were spun off by the service to shutdown.
	//
	o.chKill <- true

	return o.chStopped, nil
}

//
// Write records the provided signal. Rows are buffered and flushed when the service stops.
//
func (o *Service) Write(signal alpha.Signal) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.writer == nil {
		return errors.New("cannot write a signal before the writer service has started")
	}

	return o.writer.Write([]string{
		signal.GeneratedAt.UTC().Format(time.RFC3339),
		signal.Symbol.String(),
		signal.Kind.String(),
		signal.Direction.String(),
		signal.Period.String(),
		signal.Source,
		signal.ID.String(),
	})
}

//
// Sink adapts the service to the engine's sink signature, logging rather than returning write
// failures.
//
func (o *Service) Sink(signal alpha.Signal) {
	if err := o.Write(signal); err != nil {
		logger.Printf("Failed to write signal %s. (Error: %s)", signal, err)
	}
}

//
// service executes the top-level logic of the service. It is intended to be spun off into its own
// goroutine when the service is started.
//
func (o *Service) service() {
	//
	// Yield indefinitely.
	//
	<-o.chKill

	o.mu.Lock()
	defer o.mu.Unlock()

	//
	// Flush the CSV writer's buffer to the output file.
	//
	o.writer.Flush()

	if err := o.writer.Error(); err != nil {
		logger.Printf("Failed to flush output file. (Error: %s)", err)
	}

	//
	// Close the handle on the output file.
	//
	if err := o.outputFile.Close(); err != nil {
		logger.Printf("Failed to close handle on output file. (Error: %s)", err)
	}

	o.outputFile = nil
	o.writer = nil

	//
	// Send the signal that we have shut down.
	//
	o.chStopped <- true
}
