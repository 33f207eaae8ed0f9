package models

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
)

// OwnerKey identifies a registered owner.
type OwnerKey struct {
	Kind OwnerKind
	ID   int64
}

func (k OwnerKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// ParseOwnerKey validates a kind and id taken from a URL.
func ParseOwnerKey(kind, ownerID string) (OwnerKey, error) {
	k := OwnerKind(kind)
	if !k.IsValid() {
		return OwnerKey{}, dErrors.New(dErrors.CodeInvalidInput, "owner kind must be character or corporation")
	}
	var (
		n   int64
		err error
	)
	switch k {
	case OwnerCharacter:
		var c id.CharacterID
		c, err = id.ParseCharacterID(ownerID)
		n = int64(c)
	case OwnerCorporation:
		var c id.CorporationID
		c, err = id.ParseCorporationID(ownerID)
		n = int64(c)
	}
	if err != nil {
		return OwnerKey{}, err
	}
	return OwnerKey{Kind: k, ID: n}, nil
}

// RegisteredOwner is a character or corporation whose blueprints are listed
// for members to request.
//
// Invariants:
//   - CorporationID is the corporation whose members see the inventory; for a
//     corporation owner it equals Owner.ID
//   - SyncCharacter belongs to AddedBy
type RegisteredOwner struct {
	Owner         Owner            `json:"owner"`
	CorporationID id.CorporationID `json:"corporation_id"`
	SyncCharacter id.CharacterID   `json:"sync_character_id"`
	AddedBy       id.UserID        `json:"added_by"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (o *RegisteredOwner) Key() OwnerKey {
	return OwnerKey{Kind: o.Owner.Kind, ID: o.Owner.ID}
}

// Blueprint is one inventory entry. Identical blueprints in the same place are
// stacked into one entry with a quantity.
type Blueprint struct {
	ID                 id.BlueprintID   `json:"id"`
	Owner              Owner            `json:"owner"`
	CorporationID      id.CorporationID `json:"corporation_id"`
	TypeID             id.TypeID        `json:"type_id"`
	TypeName           string           `json:"type_name"`
	Runs               int              `json:"runs"`
	MaterialEfficiency int              `json:"material_efficiency"`
	TimeEfficiency     int              `json:"time_efficiency"`
	LocationID         id.LocationID    `json:"location_id"`
	LocationName       string           `json:"location_name"`
	LocationFlag       string           `json:"location_flag"`
	Quantity           int              `json:"quantity"`
}

// IsOriginal reports whether the entry is an original. Originals carry no runs.
func (b *Blueprint) IsOriginal() bool {
	return b.Runs == 0
}

// Ref is the snapshot copied into a request.
func (b *Blueprint) Ref() BlueprintRef {
	return BlueprintRef{
		TypeID:             b.TypeID,
		TypeName:           b.TypeName,
		IsOriginal:         b.IsOriginal(),
		Runs:               b.Runs,
		MaterialEfficiency: b.MaterialEfficiency,
		TimeEfficiency:     b.TimeEfficiency,
		LocationID:         b.LocationID,
		LocationName:       b.LocationName,
	}
}

func (b *Blueprint) Clone() *Blueprint {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// CanSeeBlueprint reports whether v may browse and request b: the owner's
// corporation must be one of v's corporations.
func CanSeeBlueprint(b *Blueprint, v Viewer) bool {
	return v.HasAccess() && v.InCorporation(b.CorporationID)
}

// RegisterOwnerRequest adds the viewer's character, or the viewer's
// corporation through one of their characters, as a blueprint owner.
type RegisterOwnerRequest struct {
	Kind          string `json:"kind" validate:"required,oneof=character corporation"`
	CharacterID   int64  `json:"character_id" validate:"gt=0"`
	CorporationID int64  `json:"corporation_id" validate:"gt=0"`
	Name          string `json:"name" validate:"required,max=100"`
}

func (c *RegisterOwnerRequest) Validate() error {
	if c == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	c.Kind = strings.TrimSpace(c.Kind)
	c.Name = strings.TrimSpace(c.Name)
	if err := validate.Struct(c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, validationMessage(err))
	}
	return nil
}

func (c *RegisterOwnerRequest) Character() id.CharacterID {
	return id.CharacterID(c.CharacterID)
}

// Corporation is the corporation of Character, and the owner itself for a
// corporation registration.
func (c *RegisterOwnerRequest) Corporation() id.CorporationID {
	return id.CorporationID(c.CorporationID)
}

// Owner returns the owner the command registers.
func (c *RegisterOwnerRequest) Owner() Owner {
	ownerID := c.CharacterID
	if OwnerKind(c.Kind) == OwnerCorporation {
		ownerID = c.CorporationID
	}
	return Owner{Kind: OwnerKind(c.Kind), ID: ownerID, Name: c.Name}
}

// BlueprintImport is one blueprint as reported by the game API. Runs of -1
// (or anything below 1) mark an original; a negative quantity marks a single
// unstacked item.
type BlueprintImport struct {
	TypeID             int64  `json:"type_id" validate:"gt=0"`
	TypeName           string `json:"type_name" validate:"required,max=200"`
	Runs               int    `json:"runs"`
	MaterialEfficiency int    `json:"material_efficiency" validate:"gte=0,lte=10"`
	TimeEfficiency     int    `json:"time_efficiency" validate:"gte=0,lte=20,even"`
	LocationID         int64  `json:"location_id" validate:"gte=0"`
	LocationName       string `json:"location_name" validate:"max=200"`
	LocationFlag       string `json:"location_flag" validate:"max=36"`
	Quantity           int    `json:"quantity"`
}

// ImportBlueprintsRequest replaces the whole inventory of one owner.
type ImportBlueprintsRequest struct {
	Blueprints []BlueprintImport `json:"blueprints" validate:"max=5000,dive"`
}

func (c *ImportBlueprintsRequest) Validate() error {
	if c == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for i := range c.Blueprints {
		c.Blueprints[i].TypeName = strings.TrimSpace(c.Blueprints[i].TypeName)
		c.Blueprints[i].LocationName = strings.TrimSpace(c.Blueprints[i].LocationName)
	}
	if err := validate.Struct(c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, validationMessage(err))
	}
	return nil
}

type stackKey struct {
	typeID     int64
	runs       int
	me, te     int
	locationID int64
	flag       string
}

// StackBlueprints turns imported items into inventory entries for owner.
// Items that only differ by item id are stacked and their quantities summed.
// The result keeps the order in which each stack was first seen.
func StackBlueprints(owner *RegisteredOwner, items []BlueprintImport) []*Blueprint {
	out := make([]*Blueprint, 0, len(items))
	index := make(map[stackKey]*Blueprint, len(items))
	for _, it := range items {
		runs := it.Runs
		if runs < 1 {
			runs = 0
		}
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		k := stackKey{it.TypeID, runs, it.MaterialEfficiency, it.TimeEfficiency, it.LocationID, it.LocationFlag}
		if b, ok := index[k]; ok {
			b.Quantity += qty
			continue
		}
		b := &Blueprint{
			ID:                 id.NewBlueprintID(),
			Owner:              owner.Owner,
			CorporationID:      owner.CorporationID,
			TypeID:             id.TypeID(it.TypeID),
			TypeName:           it.TypeName,
			Runs:               runs,
			MaterialEfficiency: it.MaterialEfficiency,
			TimeEfficiency:     it.TimeEfficiency,
			LocationID:         id.LocationID(it.LocationID),
			LocationName:       it.LocationName,
			LocationFlag:       it.LocationFlag,
			Quantity:           qty,
		}
		index[k] = b
		out = append(out, b)
	}
	return out
}

// BlueprintRow is one row of the inventory grid.
type BlueprintRow struct {
	BlueprintID        id.BlueprintID `json:"blueprint_id"`
	TypeID             id.TypeID      `json:"type_id"`
	TypeName           string         `json:"type_name"`
	IconVariant        string         `json:"icon_variant"`
	IsOriginal         bool           `json:"is_original"`
	Runs               int            `json:"runs"`
	MaterialEfficiency int            `json:"material_efficiency"`
	TimeEfficiency     int            `json:"time_efficiency"`
	Quantity           int            `json:"quantity"`
	OwnerName          string         `json:"owner_name"`
	OwnerKind          OwnerKind      `json:"owner_kind"`
	GroupKey           string         `json:"group_key"`
	Requestable        bool           `json:"requestable"`
}

// ProjectBlueprint builds the inventory row v sees for b. Location hiding
// follows Project.
func ProjectBlueprint(b *Blueprint, v Viewer) BlueprintRow {
	group := UnknownGroup
	if v.Can(PermViewLocations) && b.LocationName != "" {
		group = b.LocationName
	}
	icon := "bpc"
	if b.IsOriginal() {
		icon = "bpo"
	}
	return BlueprintRow{
		BlueprintID:        b.ID,
		TypeID:             b.TypeID,
		TypeName:           b.TypeName,
		IconVariant:        icon,
		IsOriginal:         b.IsOriginal(),
		Runs:               b.Runs,
		MaterialEfficiency: b.MaterialEfficiency,
		TimeEfficiency:     b.TimeEfficiency,
		Quantity:           b.Quantity,
		OwnerName:          b.Owner.Name,
		OwnerKind:          b.Owner.Kind,
		GroupKey:           group,
		Requestable:        v.Can(PermRequestBlueprints) && !v.ControlsOwner(b.Owner),
	}
}

// SortBlueprintRows orders rows by group key, type name, owner and id.
func SortBlueprintRows(rows []BlueprintRow) {
	slices.SortFunc(rows, func(a, b BlueprintRow) int {
		return cmp.Or(
			cmp.Compare(a.GroupKey, b.GroupKey),
			cmp.Compare(a.TypeName, b.TypeName),
			cmp.Compare(a.OwnerName, b.OwnerName),
			cmp.Compare(a.BlueprintID.String(), b.BlueprintID.String()),
		)
	})
}

// SortOwners orders owners by kind then name.
func SortOwners(owners []*RegisteredOwner) {
	slices.SortFunc(owners, func(a, b *RegisteredOwner) int {
		return cmp.Or(
			cmp.Compare(a.Owner.Kind, b.Owner.Kind),
			cmp.Compare(a.Owner.Name, b.Owner.Name),
			cmp.Compare(a.Owner.ID, b.Owner.ID),
		)
	})
}
