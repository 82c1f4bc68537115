package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
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

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomWorker(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleWorker,
	}

	return user, nil
}

// GenerateStationTemplates 为一个岗位生成一周的班次
// 每天从 startHour 开始排若干个首尾相接的班次，偶尔随机去掉一个以制造覆盖空档
func GenerateStationTemplates(stationID, roleID int64) []*domain.ShiftTemplate {
	templates := make([]*domain.ShiftTemplate, 0)

	for day := int32(0); day < 7; day++ {
		startHour := rand.Intn(3) + 7    // 7~9 点开始
		shiftsNum := rand.Intn(3) + 2    // 2~4 个班次
		hourPerShift := rand.Intn(2) + 3 // 每个班次 3~4 小时
		skipped := -1
		if rand.Intn(4) == 0 {
			skipped = rand.Intn(shiftsNum)
		}

		for i := 0; i < shiftsNum; i++ {
			if i == skipped {
				continue
			}
			start := startHour + i*hourPerShift
			end := start + hourPerShift
			if end > 23 {
				break
			}

			templates = append(templates, &domain.ShiftTemplate{
				StationID:     stationID,
				RoleID:        roleID,
				DayOfWeek:     day,
				StartTime:     fmt.Sprintf("%02d:00", start),
				EndTime:       fmt.Sprintf("%02d:00", end),
				WorkersNeeded: int32(rand.Intn(3) + 1),
				IsActive:      true,
			})
		}
	}

	return templates
}

// GenerateRandomWindows 随机生成若干天的每周固定可用时间
func GenerateRandomWindows() []domain.AvailabilityWindow {
	windows := make([]domain.AvailabilityWindow, 0)

	for _, day := range GenerateRandomSubset([]int32{0, 1, 2, 3, 4, 5, 6}) {
		start := rand.Intn(6) + 6 // 6~11 点
		end := start + rand.Intn(8) + 4
		if end > 23 {
			end = 23
		}
		windows = append(windows, domain.RecurringWindow{
			DayOfWeek: day,
			StartTime: fmt.Sprintf("%02d:00", start),
			EndTime:   fmt.Sprintf("%02d:00", end),
		})
	}

	return windows
}

// 使用 Fisher-Yates 洗牌算法来生成一个随机子集
func GenerateRandomSubset(arr []int32) []int32 {
	arrCopy := append([]int32{}, arr...) // 复制数组，避免修改原数组

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	l := rand.Intn(len(arrCopy)) + 1
	return arrCopy[:l]
}
