package data

import "fmt"

type BatchProcessor struct {
	batchSize int
}

func NewBatchProcessor(batchSize int) *BatchProcessor {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &BatchProcessor{batchSize: batchSize}
}

// ProcessBatches calls processFn on consecutive slices of samples, passing
// the offset of the first sample in each batch.
func (bp *BatchProcessor) ProcessBatches(samples []Sample, processFn func(offset int, batch []Sample) error) error {
	for start := 0; start < len(samples); start += bp.batchSize {
		end := start + bp.batchSize
		if end > len(samples) {
			end = len(samples)
		}

		if err := processFn(start, samples[start:end]); err != nil {
			return fmt.Errorf("batch at offset %d: %w", start, err)
		}
	}

	return nil
}

func (bp *BatchProcessor) BatchSize() int {
	return bp.batchSize
}
