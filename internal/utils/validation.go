package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/citytime"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

// NormalizeClock 把 "8:00" 之类的输入统一为 "08:00"，空字符串保持为空
func NormalizeClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", fmt.Errorf("时间 %q 格式错误，应为 HH:MM", s)
	}
	return t.Format(citytime.ClockLayout), nil
}

// ValidateShift 检查班次字段并就地规范化提醒时间
func ValidateShift(shift *domain.Shift) error {
	if strings.TrimSpace(shift.City) == "" {
		return errors.New("城市不能为空")
	}
	if strings.TrimSpace(shift.Date) == "" {
		return errors.New("日期不能为空")
	}
	if shift.MainSlots < 1 {
		return errors.New("主名单名额至少为 1")
	}
	if shift.ReserveSlots < 0 {
		return errors.New("替补名额不能为负数")
	}

	evening, err := NormalizeClock(shift.EveningReminderTime)
	if err != nil {
		return fmt.Errorf("晚间提醒%w", err)
	}
	morning, err := NormalizeClock(shift.MorningReminderTime)
	if err != nil {
		return fmt.Errorf("早间提醒%w", err)
	}
	shift.EveningReminderTime = evening
	shift.MorningReminderTime = morning

	return nil
}

// ValidateProfile 对应报名前需要填写的资料表单
func ValidateProfile(p *domain.WorkerProfile) error {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Phone = strings.TrimSpace(p.Phone)
	p.City = strings.TrimSpace(p.City)

	if utf8.RuneCountInString(p.FullName) < 3 {
		return errors.New("姓名过短")
	}
	if p.Age < 16 || p.Age > 80 {
		return errors.New("年龄必须在 16 到 80 之间")
	}
	if len(p.Phone) < 10 {
		return errors.New("电话号码过短")
	}
	if p.City == "" {
		return errors.New("城市不能为空")
	}
	return nil
}
