package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/spf13/cast"

	"quantflow/internal/model"
)

// 同一个文件在一次进程内经常被反复回测，解析结果做 LRU 缓存
var seriesCache, _ = lru.New(16)

// CSVFeed 从 CSV 文件读取单标的的历史K线。
// 支持表头: timestamp,open,high,low,close,volume[,turnover]
// timestamp 接受 2006-01-02 或 RFC3339。
type CSVFeed struct {
	MemoryFeed
	path string
}

// NewCSVFeed 加载并解析 CSV，按 [start, end] 闭区间过滤（零值表示不限制）
func NewCSVFeed(path, symbol string, start, end time.Time) (*CSVFeed, error) {
	all, err := loadSeries(path, symbol)
	if err != nil {
		return nil, err
	}

	klines := make([]*model.Kline, 0, len(all))
	for _, k := range all {
		if !start.IsZero() && k.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && k.Timestamp.After(end) {
			continue
		}
		klines = append(klines, k)
	}

	f := &CSVFeed{path: path}
	f.klines = klines
	return f, nil
}

func loadSeries(path, symbol string) ([]*model.Kline, error) {
	cacheKey := path + "|" + symbol
	if v, ok := seriesCache.Get(cacheKey); ok {
		return v.([]*model.Kline), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"timestamp", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("csv missing column %q", required)
		}
	}

	var klines []*model.Kline
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		ts, err := parseTime(record[col["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		k := &model.Kline{Timestamp: ts, Symbol: symbol}
		if k.Open, err = cast.ToFloat64E(record[col["open"]]); err != nil {
			return nil, fmt.Errorf("csv line %d open: %w", line, err)
		}
		if k.High, err = cast.ToFloat64E(record[col["high"]]); err != nil {
			return nil, fmt.Errorf("csv line %d high: %w", line, err)
		}
		if k.Low, err = cast.ToFloat64E(record[col["low"]]); err != nil {
			return nil, fmt.Errorf("csv line %d low: %w", line, err)
		}
		if k.Close, err = cast.ToFloat64E(record[col["close"]]); err != nil {
			return nil, fmt.Errorf("csv line %d close: %w", line, err)
		}
		if k.Volume, err = cast.ToFloat64E(record[col["volume"]]); err != nil {
			return nil, fmt.Errorf("csv line %d volume: %w", line, err)
		}
		if idx, ok := col["turnover"]; ok && idx < len(record) {
			// turnover 可选，解析失败按 0 处理
			k.Turnover = cast.ToFloat64(record[idx])
		}
		klines = append(klines, k)
	}

	// 数据文件不保证有序，统一按时间升序排一次
	sort.SliceStable(klines, func(i, j int) bool {
		return klines[i].Timestamp.Before(klines[j].Timestamp)
	})

	seriesCache.Add(cacheKey, klines)
	return klines, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
