package citytime

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"time"
	_ "time/tzdata" // 容器镜像中可能没有系统时区数据库

	"gopkg.in/yaml.v3"
)

const (
	ClockLayout = "15:04"
	DateLayout  = "02.01.2006"
)

//go:embed cities.yaml
var defaultTable []byte

type table struct {
	Fallback string            `yaml:"fallback"`
	Cities   map[string]string `yaml:"cities"`
}

// Resolver 把城市映射到时区，并给出该城市的当前本地时间
type Resolver struct {
	zones    map[string]*time.Location
	fallback *time.Location
	now      func() time.Time
}

// New 使用内置的城市表；path 不为空时改为读取该文件。
// fallback 不为空时覆盖表中的默认时区。
func New(path string, fallback string) (*Resolver, error) {
	raw := defaultTable
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取城市时区表失败: %w", err)
		}
		raw = b
	}

	var t table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("解析城市时区表失败: %w", err)
	}
	if fallback != "" {
		t.Fallback = fallback
	}
	if t.Fallback == "" {
		t.Fallback = "UTC"
	}

	fb, err := time.LoadLocation(t.Fallback)
	if err != nil {
		return nil, fmt.Errorf("无效的默认时区 %q: %w", t.Fallback, err)
	}

	r := &Resolver{
		zones:    make(map[string]*time.Location, len(t.Cities)),
		fallback: fb,
		now:      time.Now,
	}
	for city, zone := range t.Cities {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("城市 %s 的时区 %q 无效: %w", city, zone, err)
		}
		r.zones[city] = loc
	}

	return r, nil
}

// WithClock 替换时间来源，主要用于测试
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

func (r *Resolver) Now() time.Time {
	return r.now()
}

// Location 返回城市的时区，未知城市使用默认时区
func (r *Resolver) Location(city string) *time.Location {
	if loc, ok := r.zones[city]; ok {
		return loc
	}
	return r.fallback
}

// Known 判断城市是否在时区表中
func (r *Resolver) Known(city string) bool {
	_, ok := r.zones[city]
	return ok
}

// Cities 返回按字母排序的城市列表
func (r *Resolver) Cities() []string {
	cities := make([]string, 0, len(r.zones))
	for city := range r.zones {
		cities = append(cities, city)
	}
	slices.Sort(cities)
	return cities
}

func (r *Resolver) LocalNow(city string) time.Time {
	return r.now().In(r.Location(city))
}

// LocalTime 返回城市本地时间，格式 HH:MM
func (r *Resolver) LocalTime(city string) string {
	return r.LocalNow(city).Format(ClockLayout)
}

// LocalDate 返回城市本地日期，格式 DD.MM.YYYY
func (r *Resolver) LocalDate(city string) string {
	return r.LocalNow(city).Format(DateLayout)
}
