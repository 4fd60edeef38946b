package config

import (
	"context"
	"log"

	"cif-onboarding/internal/adapters/persistence/models"
	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/core/domain"

	"gorm.io/gorm"
)

type seedOption struct {
	code        string
	description string
	parent      string
}

// masterData is the reference data shown in the onboarding forms.
// City options carry their province as parent code.
var masterData = map[domain.OptionCategory][]seedOption{
	domain.OptionNationality: {
		{code: "ID", description: "Indonesia"},
		{code: "MY", description: "Malaysia"},
		{code: "SG", description: "Singapore"},
		{code: "TH", description: "Thailand"},
		{code: "US", description: "United States"},
		{code: "OT", description: "Other"},
	},
	domain.OptionReligion: {
		{code: "1", description: "Islam"},
		{code: "2", description: "Protestan"},
		{code: "3", description: "Katolik"},
		{code: "4", description: "Hindu"},
		{code: "5", description: "Buddha"},
		{code: "6", description: "Konghucu"},
		{code: "7", description: "Lainnya"},
	},
	domain.OptionMaritalStatus: {
		{code: "1", description: "Belum Kawin"},
		{code: "2", description: "Kawin"},
		{code: "3", description: "Cerai Hidup"},
		{code: "4", description: "Cerai Mati"},
	},
	domain.OptionEducation: {
		{code: "1", description: "SD"},
		{code: "2", description: "SMP"},
		{code: "3", description: "SMA"},
		{code: "4", description: "Diploma"},
		{code: "5", description: "S1"},
		{code: "6", description: "S2"},
		{code: "7", description: "S3"},
		{code: "8", description: "Lainnya"},
	},
	domain.OptionOccupation: {
		{code: "1", description: "Pegawai Swasta"},
		{code: "2", description: "Pegawai Negeri"},
		{code: "3", description: "TNI/Polri"},
		{code: "4", description: "Wiraswasta"},
		{code: "5", description: "Pelajar/Mahasiswa"},
		{code: "6", description: "Ibu Rumah Tangga"},
		{code: "7", description: "Pensiunan"},
		{code: "8", description: "Lainnya"},
	},
	domain.OptionIncomeSource: {
		{code: "1", description: "Gaji"},
		{code: "2", description: "Keuntungan Usaha"},
		{code: "3", description: "Warisan"},
		{code: "4", description: "Dari Orang Tua/Anak"},
		{code: "5", description: "Hibah"},
		{code: "6", description: "Bunga Tabungan"},
		{code: "7", description: "Lainnya"},
	},
	domain.OptionBank: {
		{code: "002", description: "Bank Rakyat Indonesia"},
		{code: "008", description: "Bank Mandiri"},
		{code: "009", description: "Bank Negara Indonesia"},
		{code: "014", description: "Bank Central Asia"},
		{code: "022", description: "CIMB Niaga"},
		{code: "451", description: "Bank Syariah Indonesia"},
	},
	domain.OptionCity: {
		{code: "3171", description: "Jakarta Pusat", parent: "DKI Jakarta"},
		{code: "3172", description: "Jakarta Utara", parent: "DKI Jakarta"},
		{code: "3173", description: "Jakarta Barat", parent: "DKI Jakarta"},
		{code: "3174", description: "Jakarta Selatan", parent: "DKI Jakarta"},
		{code: "3175", description: "Jakarta Timur", parent: "DKI Jakarta"},
		{code: "3273", description: "Kota Bandung", parent: "Jawa Barat"},
		{code: "3275", description: "Kota Bekasi", parent: "Jawa Barat"},
		{code: "3578", description: "Kota Surabaya", parent: "Jawa Timur"},
		{code: "3374", description: "Kota Semarang", parent: "Jawa Tengah"},
		{code: "3471", description: "Kota Yogyakarta", parent: "DI Yogyakarta"},
		{code: "1275", description: "Kota Medan", parent: "Sumatera Utara"},
		{code: "5171", description: "Kota Denpasar", parent: "Bali"},
		{code: "7371", description: "Kota Makassar", parent: "Sulawesi Selatan"},
	},
}

// SeedMasterData upserts the reference option lists
func SeedMasterData(ctx context.Context, db *gorm.DB) (int, error) {
	repo := repositories.NewOptionRepository(db)

	total := 0
	for _, category := range domain.OptionCategories() {
		seeds := masterData[category]
		options := make([]*models.Option, 0, len(seeds))
		for i, seed := range seeds {
			options = append(options, &models.Option{
				Category:    string(category),
				Code:        seed.code,
				Description: seed.description,
				ParentCode:  seed.parent,
				SortOrder:   i + 1,
				IsActive:    true,
			})
		}
		if len(options) == 0 {
			continue
		}
		if err := repo.Upsert(ctx, options); err != nil {
			return total, err
		}
		log.Printf("   Seeded %s: %d options", category, len(options))
		total += len(options)
	}

	log.Println("✅ Master data seeded successfully")
	return total, nil
}
