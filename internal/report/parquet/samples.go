// Package parquet writes per-invocation query samples to a Parquet file.
package parquet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	pq "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lzhtan/intdb-bench/internal/querybench"
)

// SampleRow is one timed query invocation.
type SampleRow struct {
	RunID     string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Backend   string  `parquet:"name=backend, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	QueryType string  `parquet:"name=query_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Iteration int32   `parquet:"name=iteration, type=INT32"`
	Param     string  `parquet:"name=param, type=BYTE_ARRAY, convertedtype=UTF8"`
	ElapsedMs float64 `parquet:"name=elapsed_ms, type=DOUBLE"`
	Success   bool    `parquet:"name=success, type=BOOLEAN"`
	Rows      int64   `parquet:"name=rows, type=INT64"`
	Error     string  `parquet:"name=error, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// FileName returns the samples file name for a run timestamp.
func FileName(ts string) string {
	return fmt.Sprintf("query_samples_%s.parquet", ts)
}

// WriteSamples writes samples to dir and returns the file path.
func WriteSamples(dir, ts, runID string, samples []querybench.Sample) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	path := filepath.Join(dir, FileName(ts))

	file, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", fmt.Errorf("创建 parquet 文件失败: %w", err)
	}
	if err := write(file, runID, samples); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("关闭 parquet 文件失败: %w", err)
	}
	return path, nil
}

func write(file source.ParquetFile, runID string, samples []querybench.Sample) error {
	pw, err := writer.NewParquetWriter(file, new(SampleRow), 1)
	if err != nil {
		return fmt.Errorf("创建 parquet writer 失败: %w", err)
	}
	pw.CompressionType = pq.CompressionCodec_SNAPPY

	for _, s := range samples {
		row := SampleRow{
			RunID:     runID,
			Backend:   string(s.Backend),
			QueryType: string(s.QueryType),
			Iteration: int32(s.Iteration),
			Param:     s.Param,
			ElapsedMs: s.ElapsedMs,
			Success:   s.Success,
			Rows:      int64(s.Rows),
			Error:     s.Error,
		}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("写入样本失败: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("结束 parquet 写入失败: %w", err)
	}
	return nil
}
