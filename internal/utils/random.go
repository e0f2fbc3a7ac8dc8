package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, p := range pinyinArray {
		length := rand.Intn(len(p)) + 1
		username += p[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomAdmin 生成一个管理员账号，用户名由中文姓名的拼音组成
func GenerateRandomAdmin(password string, emailDomainName string) (*domain.Admin, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &domain.Admin{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
	}, nil
}

var (
	russianSurnames = []string{
		"Иванов", "Смирнов", "Кузнецов", "Попов", "Васильев",
		"Петров", "Соколов", "Михайлов", "Новиков", "Фёдоров",
	}
	russianFirstNames = []string{
		"Александр", "Дмитрий", "Максим", "Сергей", "Андрей",
		"Алексей", "Артём", "Илья", "Кирилл", "Михаил",
	}
	handleLetters = []rune("abcdefghijklmnopqrstuvwxyz")
)

func GenerateRandomRussianName() string {
	return russianSurnames[rand.Intn(len(russianSurnames))] + " " + russianFirstNames[rand.Intn(len(russianFirstNames))]
}

func GenerateRandomPhone() string {
	return fmt.Sprintf("+79%09d", rand.Intn(1000000000))
}

// GenerateRandomWorker 生成一个资料完整、处于启用状态的工人
func GenerateRandomWorker(city string, emailDomainName string) (*domain.Worker, *domain.WorkerProfile) {
	handle := make([]rune, 8)
	for i := range handle {
		handle[i] = handleLetters[rand.Intn(len(handleLetters))]
	}

	worker := &domain.Worker{
		Handle:   string(handle),
		Email:    string(handle) + "@" + emailDomainName,
		IsActive: true,
	}
	profile := &domain.WorkerProfile{
		City:     city,
		FullName: GenerateRandomRussianName(),
		Phone:    GenerateRandomPhone(),
		Age:      int32(rand.Intn(40) + 18),
		Rating:   5,
		IsActive: true,
	}
	return worker, profile
}

// GenerateRandomShift 生成一个明天的班次，日期格式与城市本地日期一致
func GenerateRandomShift(city string, now time.Time) *domain.Shift {
	day := now.AddDate(0, 0, 1)
	hour := rand.Intn(4) + 7

	return &domain.Shift{
		City:                city,
		Date:                fmt.Sprintf("%s, %02d:00", day.Format("02.01.2006"), hour),
		Address:             fmt.Sprintf("ул. Складская, %d", rand.Intn(100)+1),
		Payment:             fmt.Sprintf("%d ₽/смена", (rand.Intn(20)+20)*100),
		Conditions:          "Спецодежда выдаётся на месте",
		MainSlots:           int32(rand.Intn(8) + 2),
		ReserveSlots:        int32(rand.Intn(4)),
		EveningReminderTime: "20:00",
		MorningReminderTime: fmt.Sprintf("%02d:00", hour-2),
	}
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}
