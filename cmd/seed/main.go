package main

import (
	"os"
	"time"

	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// 开发环境演示数据：工位、菜单、员工与当日排班。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	if err := models.InitDefaultAdmin(os.Getenv("PF_DEFAULT_ADMIN_EMAIL"), os.Getenv("PF_DEFAULT_ADMIN_PASSWORD")); err != nil {
		stdLog.Fatalf("初始化默认管理员失败: %v", err)
	}

	seedStations(stdLog)
	staffIDs := seedStaff(stdLog)
	seedShifts(stdLog, staffIDs)
	seedProducts(stdLog)

	stdLog.Println("演示数据初始化完成")
}

type fatalLogger interface {
	Fatalf(format string, v ...interface{})
	Printf(format string, v ...interface{})
}

func intPtr(v int) *int { return &v }

func seedStations(stdLog fatalLogger) {
	stations := []models.KitchenStation{
		{Code: constants.StationCodeGrill, Name: "烤台", StationType: "hot", BatchCapacity: intPtr(6), SortOrder: 1, IsActive: true},
		{Code: constants.StationCodeFryer, Name: "炸台", StationType: "hot", BatchCapacity: intPtr(8), SortOrder: 2, IsActive: true},
		{Code: constants.StationCodeDrinks, Name: "水吧", StationType: "drink", BatchCapacity: intPtr(10), SortOrder: 3, IsActive: true},
		{Code: constants.StationCodePack, Name: "打包位", StationType: "pack", IsPacking: true, BatchCapacity: intPtr(12), SortOrder: 4, IsActive: true},
	}
	for _, station := range stations {
		var count int64
		models.DB.Model(&models.KitchenStation{}).Where("code = ?", station.Code).Count(&count)
		if count > 0 {
			continue
		}
		if err := models.DB.Create(&station).Error; err != nil {
			stdLog.Fatalf("创建工位 %s 失败: %v", station.Code, err)
		}
	}
}

func seedStaff(stdLog fatalLogger) []uint {
	seeds := []struct {
		email string
		name  string
	}{
		{"grill@prepflow.local", "烤台小李"},
		{"fryer@prepflow.local", "炸台小王"},
		{"drinks@prepflow.local", "水吧小张"},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("staff12345"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("生成员工密码失败: %v", err)
	}

	ids := make([]uint, 0, len(seeds))
	for _, seed := range seeds {
		var exist models.User
		result := models.DB.Where("email = ?", seed.email).First(&exist)
		if result.Error == nil {
			ids = append(ids, exist.ID)
			continue
		}
		user := models.User{
			Email:        seed.email,
			PasswordHash: string(hash),
			DisplayName:  seed.name,
			Role:         constants.UserRoleStaff,
			Status:       constants.UserStatusActive,
		}
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Fatalf("创建员工 %s 失败: %v", seed.email, err)
		}
		ids = append(ids, user.ID)
	}
	stdLog.Printf("演示员工密码: staff12345")
	return ids
}

func seedShifts(stdLog fatalLogger, staffIDs []uint) {
	stationCodes := []string{constants.StationCodeGrill, constants.StationCodeFryer, constants.StationCodeDrinks}
	today := time.Now().Format("2006-01-02")
	for i, staffID := range staffIDs {
		stationCode := stationCodes[i%len(stationCodes)]
		var count int64
		models.DB.Model(&models.StaffShift{}).
			Where("staff_id = ? AND shift_date = ?", staffID, today).Count(&count)
		if count > 0 {
			continue
		}
		shift := models.StaffShift{
			StaffID:     staffID,
			StationCode: stationCode,
			ShiftDate:   today,
			StartClock:  "10:00",
			EndClock:    "22:00",
			Status:      constants.ShiftStatusScheduled,
		}
		if err := models.DB.Create(&shift).Error; err != nil {
			stdLog.Fatalf("创建排班失败: %v", err)
		}
	}
}

func seedProducts(stdLog fatalLogger) {
	price := func(v string) models.Money {
		d, err := decimal.NewFromString(v)
		if err != nil {
			stdLog.Fatalf("解析价格 %s 失败: %v", v, err)
		}
		return models.NewMoneyFromDecimal(d)
	}

	products := []models.Product{
		{
			Slug: "char-grilled-burger", Name: "炭烤牛肉堡", Description: "现烤牛肉饼配车打芝士",
			FoodType: constants.FoodTypeGrilled, StationCode: constants.StationCodeGrill,
			PriceAmount: price("32.00"), PrepSeconds: 420, IsActive: true, SortOrder: 1,
			Addons: []models.ProductAddon{
				{Name: "加芝士", PriceAmount: price("3.00"), IsActive: true},
				{Name: "加培根", PriceAmount: price("5.00"), IsActive: true},
			},
		},
		{
			Slug: "crispy-chicken", Name: "脆皮炸鸡", Description: "腌制 12 小时现炸",
			FoodType: constants.FoodTypeFried, StationCode: constants.StationCodeFryer,
			PriceAmount: price("26.00"), PrepSeconds: 360, IsActive: true, SortOrder: 2,
			Addons: []models.ProductAddon{
				{Name: "蜂蜜芥末酱", PriceAmount: price("2.00"), IsActive: true},
			},
		},
		{
			Slug: "fries", Name: "薯条", FoodType: constants.FoodTypeFried,
			StationCode: constants.StationCodeFryer,
			PriceAmount: price("12.00"), PrepSeconds: 240, IsActive: true, SortOrder: 3,
		},
		{
			Slug: "lemon-tea", Name: "手打柠檬茶", FoodType: constants.FoodTypeDrink,
			StationCode: constants.StationCodeDrinks,
			PriceAmount: price("15.00"), PrepSeconds: 120, IsActive: true, SortOrder: 4,
			Addons: []models.ProductAddon{
				{Name: "少冰", PriceAmount: price("0.00"), IsActive: true},
				{Name: "加珍珠", PriceAmount: price("3.00"), IsActive: true},
			},
		},
		{
			Slug: "snack-box", Name: "小食拼盒", Description: "即食包装小食",
			FoodType: constants.FoodTypePackaged, StationCode: constants.StationCodePack,
			PriceAmount: price("18.00"), PrepSeconds: 60, IsActive: true, SortOrder: 5,
		},
	}

	for _, product := range products {
		var count int64
		models.DB.Model(&models.Product{}).Where("slug = ?", product.Slug).Count(&count)
		if count > 0 {
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Fatalf("创建菜品 %s 失败: %v", product.Slug, err)
		}
	}
}
