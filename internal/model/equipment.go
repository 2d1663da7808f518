package model

import "time"

// Equipment is a rentable item listed by a host.  Equipment is never
// hard-deleted while it is in use; hosts disable it by clearing the
// Available flag.  HostID is zero when the owning user was deleted
// (equipment.host_id is ON DELETE SET NULL).
type Equipment struct {
    ID               uint64           `json:"id"`
    HostID           uint64           `json:"host_id,omitempty"`
    Title            string           `json:"title"`
    Description      string           `json:"description"`
    Category         string           `json:"category"`
    Sport            string           `json:"sport"`
    City             string           `json:"city"`
    PricePerDayCents int64            `json:"price_per_day_cents"`
    Available        bool             `json:"available"`
    Lat              *float64         `json:"lat,omitempty"`
    Lon              *float64         `json:"lon,omitempty"`
    Images           []EquipmentImage `json:"images,omitempty"`
    CreatedAt        time.Time        `json:"created_at"`
    UpdatedAt        time.Time        `json:"updated_at"`
}

// EquipmentImage is one picture of an equipment item, ordered by Position.
type EquipmentImage struct {
    ID          uint64 `json:"id"`
    EquipmentID uint64 `json:"equipment_id"`
    URL         string `json:"url"`
    Position    int    `json:"position"`
}
