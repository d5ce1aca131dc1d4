package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fab-equip-ai-api/internal/config"
	"fab-equip-ai-api/internal/domain/entity"
	"fab-equip-ai-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 迁移表结构
	fmt.Println("Running migrations...")
	if err := dataLayer.PgClient.DB().AutoMigrate(
		&entity.Equipment{},
		&entity.InstitutionPriorityRule{},
		&entity.PolicySettingRule{},
		&entity.ProcessMappingRule{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// 4. 写入规则表种子（已存在的键跳过）
	err = dataLayer.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		db := dataLayer.PgClient.DB().WithContext(txCtx)
		return seedRules(db)
	})
	if err != nil {
		log.Fatalf("failed to seed rule tables: %v", err)
	}

	// 5. 写入设备目录种子
	if err := dataLayer.EquipmentRepo.BatchUpsert(ctx, seedEquipments()); err != nil {
		log.Fatalf("failed to seed equipment catalog: %v", err)
	}

	count, err := dataLayer.EquipmentRepo.Count(ctx)
	if err != nil {
		log.Fatalf("failed to count equipments: %v", err)
	}
	fmt.Printf("Equipment catalog ready with %d entries.\n", count)

	fmt.Println("Bootstrap completed successfully.")
}

func seedRules(db *gorm.DB) error {
	skipDup := clause.OnConflict{DoNothing: true}

	priorities := []entity.InstitutionPriorityRule{
		{Institution: "나노종합기술원", Priority: 1},
		{Institution: "한국나노기술원", Priority: 2},
		{Institution: "광주나노기술집적센터", Priority: 3},
		{Institution: "나노융합기술원", Priority: 4},
		{Institution: "전북나노기술집적센터", Priority: 5},
	}
	if err := db.Clauses(skipDup).Create(&priorities).Error; err != nil {
		return fmt.Errorf("seed institution priorities: %w", err)
	}

	settings := []entity.PolicySettingRule{
		{Key: "maintenance_exclude", Value: "true", Type: "boolean"},
		{Key: "external_visible", Value: "true", Type: "boolean"},
		{Key: "min_rag_score", Value: "0.0", Type: "float"},
		{Key: "max_recommendations", Value: "5", Type: "integer"},
	}
	if err := db.Clauses(skipDup).Create(&settings).Error; err != nil {
		return fmt.Errorf("seed policy settings: %w", err)
	}

	mappings := []entity.ProcessMappingRule{
		{Keyword: "에피 성장", Categories: []string{"MOCVD", "MBE"}, Priority: 10},
		{Keyword: "에피택시", Categories: []string{"MOCVD", "MBE"}, Priority: 10},
		{Keyword: "epitaxy", Categories: []string{"MOCVD", "MBE"}, Priority: 10},
		{Keyword: "식각", Categories: []string{"ICP-RIE"}, Priority: 10},
		{Keyword: "etch", Categories: []string{"ICP-RIE"}, Priority: 10},
		{Keyword: "건식 식각", Categories: []string{"ICP-RIE"}, Priority: 5},
		{Keyword: "증착", Categories: []string{"PECVD", "ALD", "Sputter"}, Priority: 20},
		{Keyword: "절연막", Categories: []string{"PECVD", "ALD"}, Priority: 10},
		{Keyword: "금속 증착", Categories: []string{"E-beam Evaporator", "Sputter"}, Priority: 5},
		{Keyword: "노광", Categories: []string{"Mask Aligner", "Stepper"}, Priority: 10},
		{Keyword: "리소그래피", Categories: []string{"Mask Aligner", "Stepper"}, Priority: 10},
		{Keyword: "열처리", Categories: []string{"RTA", "Furnace"}, Priority: 10},
		{Keyword: "어닐링", Categories: []string{"RTA", "Furnace"}, Priority: 10},
		{Keyword: "산화", Categories: []string{"Furnace"}, Priority: 10},
		{Keyword: "표면 분석", Categories: []string{"SEM", "AFM"}, Priority: 10},
		{Keyword: "결정 분석", Categories: []string{"XRD"}, Priority: 10},
		{Keyword: "전기 측정", Categories: []string{"Probe Station"}, Priority: 10},
		{Keyword: "mocvd", Categories: []string{"MOCVD"}, Priority: 1},
		{Keyword: "mbe", Categories: []string{"MBE"}, Priority: 1, Exact: true},
		{Keyword: "ald", Categories: []string{"ALD"}, Priority: 1, Exact: true},
		{Keyword: "sem", Categories: []string{"SEM"}, Priority: 1, Exact: true},
	}
	if err := db.Clauses(skipDup).Create(&mappings).Error; err != nil {
		return fmt.Errorf("seed process mappings: %w", err)
	}

	return nil
}

func ptr(v float64) *float64 { return &v }

// seedEquipments 公共 fab 服务设备目录样例
func seedEquipments() []*entity.Equipment {
	return []*entity.Equipment{
		{
			ID: "EQ001", Name: "Hybrid RTA", Category: "RTA", Institution: "나노종합기술원",
			WaferSizes: []int{4, 6}, Materials: []string{"Si", "SiC", "GaN"},
			Processes: []string{"열처리", "어닐링", "활성화"},
			TempMin:   ptr(200), TempMax: ptr(1200), HourlyRate: 120000,
			Description: "급속 열처리 장비로 반도체 소자 공정에 사용됩니다. 급속 가열/냉각이 가능하며 다양한 분위기 가스를 지원합니다.",
		},
		{
			ID: "EQ002", Name: "MOCVD", Category: "MOCVD", Institution: "나노종합기술원",
			WaferSizes: []int{2, 4, 6}, Materials: []string{"GaN", "AlGaN", "InGaN", "sapphire"},
			Processes: []string{"에피 성장", "증착"},
			TempMin:   ptr(400), TempMax: ptr(1100), HourlyRate: 350000,
			Description: "GaN 계열 에피 성장용 MOCVD 장비입니다. HEMT, LED, 파워소자용 에피택시 성장이 가능합니다.",
		},
		{
			ID: "EQ003", Name: "ICP-RIE", Category: "ICP-RIE", Institution: "한국나노기술원",
			WaferSizes: []int{2, 4, 6, 8}, Materials: []string{"Si", "SiO2", "SiN", "GaN", "Al"},
			Processes: []string{"식각", "건식 식각", "패터닝"},
			TempMin:   ptr(-10), TempMax: ptr(200), HourlyRate: 180000,
			Description: "고밀도 플라즈마를 이용한 건식 식각 장비입니다. 이방성 식각이 가능하며 다양한 재료의 미세 패턴 형성에 사용됩니다.",
		},
		{
			ID: "EQ004", Name: "PECVD", Category: "PECVD", Institution: "한국나노기술원",
			WaferSizes: []int{4, 6, 8}, Materials: []string{"SiO2", "SiN", "a-Si"},
			Processes: []string{"증착", "절연막", "패시베이션"},
			TempMin:   ptr(100), TempMax: ptr(400), HourlyRate: 150000,
			Description: "플라즈마를 이용한 저온 CVD 장비입니다. 절연막, 패시베이션 막 증착에 사용됩니다.",
		},
		{
			ID: "EQ005", Name: "E-beam Evaporator", Category: "E-beam Evaporator", Institution: "광주나노기술집적센터",
			WaferSizes: []int{2, 4, 6}, Materials: []string{"Au", "Pt", "Ti", "Ni", "Al", "Cr"},
			Processes: []string{"금속 증착", "전극 형성"},
			TempMin:   ptr(20), TempMax: ptr(200), HourlyRate: 90000,
			Description: "전자빔을 이용한 금속 박막 증착 장비입니다. 전극, 배선, 반사막 등의 형성에 사용됩니다.",
		},
		{
			ID: "EQ006", Name: "Sputter", Category: "Sputter", Institution: "광주나노기술집적센터",
			WaferSizes: []int{4, 6, 8}, Materials: []string{"Al", "Cu", "Ti", "TiN", "W", "ITO"},
			Processes: []string{"금속 증착", "증착"},
			TempMin:   ptr(20), TempMax: ptr(400), HourlyRate: 100000,
			Description: "마그네트론 스퍼터링 장비입니다. DC 및 RF 스퍼터링이 가능하며 금속 및 투명전극 증착에 사용됩니다.",
		},
		{
			ID: "EQ007", Name: "Mask Aligner", Category: "Mask Aligner", Institution: "나노융합기술원",
			WaferSizes: []int{2, 4, 6}, Materials: []string{"Si", "GaAs", "sapphire", "glass"},
			Processes: []string{"노광", "리소그래피"},
			TempMin:   ptr(20), TempMax: ptr(150), HourlyRate: 80000,
			Description: "UV 노광 장비로 마스크 패턴을 포토레지스트에 전사합니다. 접촉식/근접식 노광이 가능합니다.",
		},
		{
			ID: "EQ008", Name: "Stepper", Category: "Stepper", Institution: "나노종합기술원",
			WaferSizes: []int{6, 8}, Materials: []string{"Si"},
			Processes: []string{"노광", "리소그래피", "패터닝"},
			TempMin:   ptr(20), TempMax: ptr(30), HourlyRate: 420000,
			Description: "고해상도 스텝 노광 장비입니다. 서브마이크론 패터닝이 가능하며 반도체 소자 제조에 사용됩니다.",
		},
		{
			ID: "EQ009", Name: "MBE", Category: "MBE", Institution: "한국나노기술원",
			WaferSizes: []int{2, 3, 4}, Materials: []string{"GaAs", "InP", "AlGaAs", "InGaAs"},
			Processes: []string{"에피 성장", "증착"},
			TempMin:   ptr(200), TempMax: ptr(700), HourlyRate: 380000,
			Description: "분자빔 에피택시 장비입니다. III-V 화합물 반도체의 고품질 에피 성장에 사용됩니다.",
		},
		{
			ID: "EQ010", Name: "ALD", Category: "ALD", Institution: "전북나노기술집적센터",
			WaferSizes: []int{4, 6, 8}, Materials: []string{"Al2O3", "HfO2", "TiO2", "ZnO"},
			Processes: []string{"증착", "절연막"},
			TempMin:   ptr(80), TempMax: ptr(350), HourlyRate: 160000,
			Description: "원자층 증착 장비입니다. 고품질 고유전체 박막 및 산화물 박막 증착에 사용됩니다.",
		},
		{
			ID: "EQ011", Name: "Furnace", Category: "Furnace", Institution: "나노융합기술원",
			WaferSizes: []int{4, 6, 8}, Materials: []string{"Si", "SiO2"},
			Processes: []string{"열처리", "산화", "확산", "어닐링"},
			TempMin:   ptr(400), TempMax: ptr(1200), HourlyRate: 70000,
			Description: "고온 열처리 퍼니스입니다. 산화, 확산, 어닐링 공정에 사용됩니다.",
		},
		{
			ID: "EQ012", Name: "SEM", Category: "SEM", Institution: "나노종합기술원",
			WaferSizes: []int{2, 4, 6, 8}, Materials: []string{"Si", "GaN", "metal", "polymer"},
			Processes: []string{"표면 분석", "미세구조 관찰"},
			TempMin:   ptr(20), TempMax: ptr(30), HourlyRate: 60000,
			Description: "주사전자현미경입니다. 시료 표면의 미세구조 관찰 및 분석에 사용됩니다.",
		},
		{
			ID: "EQ013", Name: "AFM", Category: "AFM", Institution: "광주나노기술집적센터",
			WaferSizes: []int{2, 4, 6}, Materials: []string{"Si", "GaN", "thin film"},
			Processes: []string{"표면 분석", "거칠기 측정"},
			TempMin:   ptr(20), TempMax: ptr(30), HourlyRate: 50000,
			Description: "원자힘현미경입니다. 나노스케일 표면 형상 및 거칠기 측정에 사용됩니다.",
		},
		{
			ID: "EQ014", Name: "XRD", Category: "XRD", Institution: "전북나노기술집적센터",
			WaferSizes: []int{2, 4, 6}, Materials: []string{"Si", "GaN", "thin film", "crystal"},
			Processes: []string{"결정 분석", "박막 분석"},
			TempMin:   ptr(20), TempMax: ptr(30), HourlyRate: 55000,
			Description: "X선 회절 분석 장비입니다. 박막 및 결정의 구조, 결정성, 응력 분석에 사용됩니다.",
		},
		{
			ID: "EQ015", Name: "Probe Station", Category: "Probe Station", Institution: "한국나노기술원",
			WaferSizes: []int{2, 4, 6, 8}, Materials: []string{"Si", "GaN", "SiC"},
			Processes: []string{"전기 측정", "소자 특성 평가"},
			TempMin:   ptr(-50), TempMax: ptr(200), HourlyRate: 45000,
			Description: "프로브 스테이션입니다. 반도체 소자의 전기적 특성 측정에 사용됩니다. DC/RF 측정이 가능합니다.",
		},
	}
}
