package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/service"
)

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	StartDate time.Time `json:"start_date"`
	IsActive  bool      `json:"is_active"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		StartDate: u.StartDate,
		IsActive:  u.IsActive,
	}
}

type ledgerEntryDTO struct {
	ID               uuid.UUID  `json:"id"`
	Amount           string     `json:"amount"`
	EntryType        string     `json:"entry_type"`
	Description      string     `json:"description"`
	ReferenceOrderID *uuid.UUID `json:"reference_order_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toLedgerEntryDTO(e domain.LedgerEntry) ledgerEntryDTO {
	return ledgerEntryDTO{
		ID:               e.ID,
		Amount:           e.Amount.String(),
		EntryType:        string(e.EntryType),
		Description:      e.Description,
		ReferenceOrderID: e.ReferenceOrderID,
		CreatedAt:        e.CreatedAt,
	}
}

type ledgerPageDTO struct {
	Entries []ledgerEntryDTO `json:"entries"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func toLedgerPageDTO(entries []domain.LedgerEntry, total, limit, offset int) ledgerPageDTO {
	page := ledgerPageDTO{
		Entries: make([]ledgerEntryDTO, 0, len(entries)),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}
	for _, e := range entries {
		page.Entries = append(page.Entries, toLedgerEntryDTO(e))
	}
	return page
}

type balanceDTO struct {
	UserID  uuid.UUID `json:"user_id"`
	Balance string    `json:"balance"`
}

func toBalanceDTO(userID uuid.UUID, balance decimal.Decimal) balanceDTO {
	return balanceDTO{UserID: userID, Balance: balance.String()}
}

type productDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BaseCredits string    `json:"base_credits"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProductDTO(p domain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		BaseCredits: p.BaseCredits.String(),
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

type variantDTO struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	Size            string    `json:"size"`
	Color           string    `json:"color"`
	CreditsModifier string    `json:"credits_modifier"`
	Available       *int      `json:"available,omitempty"`
}

func toVariantDTO(v domain.ProductVariant) variantDTO {
	return variantDTO{
		ID:              v.ID,
		ProductID:       v.ProductID,
		Size:            v.Size,
		Color:           v.Color,
		CreditsModifier: v.CreditsModifier.String(),
	}
}

type productDetailDTO struct {
	productDTO
	Variants []variantDTO `json:"variants"`
}

func toProductDetailDTO(p *service.ProductWithVariants) productDetailDTO {
	dto := productDetailDTO{productDTO: toProductDTO(p.Product)}
	for _, v := range p.Variants {
		vd := toVariantDTO(v.Variant)
		available := v.Available
		vd.Available = &available
		dto.Variants = append(dto.Variants, vd)
	}
	return dto
}

type orderItemDTO struct {
	ID           uuid.UUID `json:"id"`
	VariantID    uuid.UUID `json:"variant_id"`
	Quantity     int       `json:"quantity"`
	UnitCredits  string    `json:"unit_credits"`
	TotalCredits string    `json:"total_credits"`
}

type orderDTO struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"user_id"`
	Status       string         `json:"status"`
	TotalCredits string         `json:"total_credits"`
	Items        []orderItemDTO `json:"items"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

func toOrderDTO(o *domain.Order) orderDTO {
	dto := orderDTO{
		ID:           o.ID,
		UserID:       o.UserID,
		Status:       string(o.Status),
		TotalCredits: o.TotalCredits.String(),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		CompletedAt:  o.CompletedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, orderItemDTO{
			ID:           item.ID,
			VariantID:    item.VariantID,
			Quantity:     item.Quantity,
			UnitCredits:  item.UnitCredits.String(),
			TotalCredits: item.TotalCredits.String(),
		})
	}
	return dto
}

type inventoryDTO struct {
	VariantID        uuid.UUID `json:"variant_id"`
	Quantity         int       `json:"quantity"`
	ReservedQuantity int       `json:"reserved_quantity"`
	Available        int       `json:"available"`
}

func toInventoryDTO(rec *domain.InventoryRecord) inventoryDTO {
	return inventoryDTO{
		VariantID:        rec.VariantID,
		Quantity:         rec.Quantity,
		ReservedQuantity: rec.ReservedQuantity,
		Available:        rec.Available(),
	}
}
