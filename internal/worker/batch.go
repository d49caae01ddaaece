package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/securo/internal/model"
)

// Evaluator analyzes one raw text input without recording it
type Evaluator interface {
	Evaluate(ctx context.Context, input string) (model.AnalysisReport, model.InputType, error)
}

// AnalyzeJob represents one input of a batch
type AnalyzeJob struct {
	Index     int
	Input     string
	Evaluator Evaluator
	Limiter   *Limiter
	Key       string
}

// Execute waits for the limiter and runs the analysis
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	result := &AnalyzeResult{Index: j.Index, Input: j.Input}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Key); err != nil {
			result.Error = fmt.Errorf("rate limit: %w", err)
			return result
		}
	}

	report, inputType, err := j.Evaluator.Evaluate(ctx, j.Input)
	result.InputType = inputType
	if err != nil {
		result.Error = err
		return result
	}
	result.Report = &report
	return result
}

// AnalyzeResult represents the result of one batch input
type AnalyzeResult struct {
	Index     int
	Input     string
	InputType model.InputType
	Report    *model.AnalysisReport
	Error     error
}

// GetError returns the error from the analysis
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many inputs concurrently
type BatchProcessor struct {
	evaluator   Evaluator
	concurrency int
	limiter     *Limiter
	key         string
}

// NewBatchProcessor creates a new batch processor. Every job waits on
// limiter under key, normally the provider name.
func NewBatchProcessor(evaluator Evaluator, concurrency int, limiter *Limiter, key string) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
		limiter:     limiter,
		key:         key,
	}
}

// ProcessInputs analyzes inputs and returns results in input order
func (b *BatchProcessor) ProcessInputs(ctx context.Context, inputs []string) []*AnalyzeResult {
	if len(inputs) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, input := range inputs {
		job := &AnalyzeJob{
			Index:     i,
			Input:     input,
			Evaluator: b.evaluator,
			Limiter:   b.limiter,
			Key:       b.key,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := make([]*AnalyzeResult, len(inputs))
	for _, result := range pool.Wait() {
		r := result.(*AnalyzeResult)
		results[r.Index] = r
	}

	// Jobs skipped after cancellation still get a result
	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &AnalyzeResult{Index: i, Input: inputs[i], Error: err}
		}
	}

	return results
}

// ProcessFile reads inputs from a file, or from stdin for "-", and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, stdin io.Reader) ([]*AnalyzeResult, error) {
	inputs, err := ReadInputsFromFile(filePath, stdin)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	return b.ProcessInputs(ctx, inputs), nil
}

// ReadInputsFromFile reads inputs from a file, one per line. "-" reads stdin.
func ReadInputsFromFile(filePath string, stdin io.Reader) ([]string, error) {
	if filePath == "-" {
		return ReadInputs(stdin)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadInputs(file)
}

// ReadInputs reads one input per line, skipping blanks, comments and duplicates
func ReadInputs(r io.Reader) ([]string, error) {
	var inputs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			inputs = append(inputs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	return inputs, nil
}
