// Package seed 从 CSV 导入已有的工人名单
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/utils"
)

// RequiredHeaders 是 CSV 文件必须包含的列
var RequiredHeaders = []string{"handle", "email", "full_name", "phone", "age", "city"}

type WorkerStore interface {
	CreateWorker(ctx context.Context, worker *domain.Worker) error
	UpsertProfile(ctx context.Context, profile *domain.WorkerProfile) error
}

type Report struct {
	Imported int
	Skipped  int
}

func ImportWorkersFile(ctx context.Context, store WorkerStore, path string, logger *slog.Logger) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	return ImportWorkers(ctx, store, file, logger)
}

// ImportWorkers 逐行创建账号并写入资料，单行出错只跳过该行
func ImportWorkers(ctx context.Context, store WorkerStore, r io.Reader, logger *slog.Logger) (*Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	for i := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(headers[i]))
	}
	for _, key := range RequiredHeaders {
		if !slices.Contains(headers, key) {
			return nil, fmt.Errorf("没有找到列 %s", key)
		}
	}

	report := &Report{}
	line := 1
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return report, fmt.Errorf("读取文件失败: %w", err)
		}
		line++

		record := make(map[string]string, len(headers))
		for i, value := range row {
			record[headers[i]] = strings.TrimSpace(value)
		}

		if err := importRow(ctx, store, record); err != nil {
			logger.Warn("跳过无效的记录", slog.Int("line", line), "error", err)
			report.Skipped++
			continue
		}
		report.Imported++
	}

	return report, nil
}

func importRow(ctx context.Context, store WorkerStore, record map[string]string) error {
	age, err := strconv.Atoi(record["age"])
	if err != nil {
		return fmt.Errorf("年龄 %q 不是数字", record["age"])
	}

	profile := &domain.WorkerProfile{
		City:     record["city"],
		FullName: record["full_name"],
		Phone:    record["phone"],
		Age:      int32(age),
	}
	if err := utils.ValidateProfile(profile); err != nil {
		return err
	}

	worker := &domain.Worker{
		Handle:   record["handle"],
		Email:    record["email"],
		IsActive: true,
	}
	if worker.Handle == "" || worker.Email == "" {
		return errors.New("账号和邮箱不能为空")
	}
	if err := store.CreateWorker(ctx, worker); err != nil {
		return err
	}

	profile.WorkerID = worker.ID
	return store.UpsertProfile(ctx, profile)
}
