package models

import (
	"time"

	"bitbucket.org/mmdatafocus/chargeback_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllocationRule maps shared-service applications (by H-code substring) to a
// distribution method. Rules are matched in rule id order; the first hit wins.
type AllocationRule struct {
	RuleId int `gorm:"primaryKey" json:"rule_id"`

	RuleName           string             `gorm:"size:128;uniqueIndex;not null" json:"rule_name" validate:"required"`
	DistributionMethod DistributionMethod `gorm:"size:64;not null" json:"distribution_method" validate:"required,oneof=proportional_usage equal_split custom_formula"`
	SharedServiceCode  string             `gorm:"size:64;not null" json:"shared_service_code" validate:"required"`
	AppliesToSectorId  *int               `json:"applies_to_sector_id"`
	IsActive           bool               `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func defaultAllocationRules() []AllocationRule {
	return []AllocationRule{
		{
			RuleName:           "Platform Services - Proportional",
			DistributionMethod: DistributionMethodProportionalUsage,
			SharedServiceCode:  "PLATFORM",
			IsActive:           true,
		},
		{
			RuleName:           "Global IT - Equal Split",
			DistributionMethod: DistributionMethodEqualSplit,
			SharedServiceCode:  "GLOBAL_IT",
			IsActive:           true,
		},
		{
			RuleName:           "Shared Services - Custom Formula",
			DistributionMethod: DistributionMethodCustomFormula,
			SharedServiceCode:  "SHARED_SVC",
			IsActive:           true,
		},
	}
}

// SeedDefaultAllocationRules inserts the stock rules if absent. Existing rows
// are left untouched so operators can tune them.
func SeedDefaultAllocationRules(tx *gorm.DB) error {
	for _, rule := range defaultAllocationRules() {
		if err := utils.ValidateStruct(&rule); err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rule).Error; err != nil {
			return err
		}
	}
	return nil
}

func GetActiveAllocationRules(tx *gorm.DB) ([]AllocationRule, error) {
	var rules []AllocationRule
	err := tx.Where("is_active = ?", true).Order("rule_id").Find(&rules).Error
	return rules, err
}
