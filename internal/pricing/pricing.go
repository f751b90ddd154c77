package pricing

import (
	"errors"
	"math"
)

// Surface keys identify which part of a box room a material is applied to.
const (
	SurfaceFloor     = "floor"
	SurfaceCeiling   = "ceiling"
	SurfaceWall      = "wall"
	SurfaceLeftWall  = "leftWall"
	SurfaceRightWall = "rightWall"
	SurfaceBackWall  = "backWall"
	SurfaceFrontWall = "frontWall"
)

// surfaceOrder fixes iteration order so identical input produces an
// identical quote regardless of map ordering.
var surfaceOrder = []string{
	SurfaceFloor,
	SurfaceCeiling,
	SurfaceWall,
	SurfaceLeftWall,
	SurfaceRightWall,
	SurfaceBackWall,
	SurfaceFrontWall,
}

// ErrInvalidDimensions is returned when a room dimension is missing,
// non-positive, or non-finite.
var ErrInvalidDimensions = errors.New("room dimensions must be positive numbers")

// Dimensions holds the room measurements in meters.
type Dimensions struct {
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Height float64 `json:"height"`
}

// DefaultDimensions returns the 5 x 5 x 3 room substituted when a request
// omits dimensions. Callers apply it before computing; ComputeAreas itself
// never defaults.
func DefaultDimensions() Dimensions {
	return Dimensions{Width: 5, Length: 5, Height: 3}
}

// Areas contains the surface areas derived from room dimensions, in square
// meters. Floor and ceiling are always equal for a box room.
type Areas struct {
	Floor   float64 `json:"floorArea"`
	Ceiling float64 `json:"ceilingArea"`
	Walls   float64 `json:"wallsArea"`
	Total   float64 `json:"totalArea"`
}

// ComputeAreas derives floor, ceiling, wall, and total surface areas from
// room dimensions. No rounding is applied; rounding for display is the
// caller's concern.
func ComputeAreas(d Dimensions) (Areas, error) {
	for _, v := range []float64{d.Width, d.Length, d.Height} {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return Areas{}, ErrInvalidDimensions
		}
	}

	floor := d.Width * d.Length
	walls := 2*(d.Width*d.Height) + 2*(d.Length*d.Height)

	return Areas{
		Floor:   floor,
		Ceiling: floor,
		Walls:   walls,
		Total:   floor + floor + walls,
	}, nil
}

// AssignedArea returns the area charged for a material on the given surface.
// Floor and ceiling use their own area; every wall key gets a quarter of the
// total wall area.
func AssignedArea(a Areas, surface string) float64 {
	switch surface {
	case SurfaceFloor:
		return a.Floor
	case SurfaceCeiling:
		return a.Ceiling
	default:
		return a.Walls / 4
	}
}

// Material is the catalog record the aggregator snapshots into a quote.
type Material struct {
	Name         string
	NameEn       string
	Type         string
	MaterialType string
	Value        string
	PricePerUnit float64
}

// Furniture is the catalog record used to resolve furniture unit prices.
type Furniture struct {
	Name      string
	NameEn    string
	UnitPrice float64
}

// MaterialCatalog resolves material records by id. The bool reports whether
// the id exists; lookup misses are not errors.
type MaterialCatalog interface {
	MaterialByID(id int64) (Material, bool, error)
}

// FurnitureCatalog resolves furniture records by id.
type FurnitureCatalog interface {
	FurnitureByID(id int64) (Furniture, bool, error)
}

// FurnitureLine is one requested furniture item. FurnitureID zero means a
// free-form item priced by UnitPrice as given.
type FurnitureLine struct {
	FurnitureID int64   `json:"furnitureId,omitempty"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int     `json:"quantity"`
}

// Adjustments are the global pricing knobs applied after line items.
type Adjustments struct {
	AdditionalCost float64 `json:"additionalCost"`
	Discount       float64 `json:"discount"`
	TaxRate        float64 `json:"taxRate"`
	Currency       string  `json:"currency"`
}

// MaterialSelection is the priced snapshot of one surface's material.
type MaterialSelection struct {
	Surface      string  `json:"surface"`
	MaterialID   int64   `json:"materialId"`
	Name         string  `json:"name"`
	NameEn       string  `json:"nameEn,omitempty"`
	Type         string  `json:"type,omitempty"`
	MaterialType string  `json:"materialType,omitempty"`
	Value        string  `json:"value,omitempty"`
	PricePerUnit float64 `json:"pricePerUnitArea"`
	AssignedArea float64 `json:"assignedArea"`
	LineTotal    float64 `json:"lineTotal"`
}

// FurnitureSelection is the priced snapshot of one furniture line.
type FurnitureSelection struct {
	FurnitureID int64   `json:"furnitureId,omitempty"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int     `json:"quantity"`
	LineTotal   float64 `json:"lineTotal"`
}

// Summary contains the roll-up of the cost aggregation.
type Summary struct {
	MaterialsCost  float64 `json:"materialsCost"`
	FurnitureCost  float64 `json:"furnitureCost"`
	AdditionalCost float64 `json:"additionalCost"`
	Discount       float64 `json:"discount"`
	TaxRate        float64 `json:"taxRate"`
	TaxAmount      float64 `json:"taxAmount"`
	TotalPrice     float64 `json:"totalPrice"`
	Currency       string  `json:"currency"`
}

// Quote groups the full output of a pricing run: derived areas, resolved
// line-item snapshots, and the summary.
type Quote struct {
	Areas     Areas                `json:"areas"`
	Materials []MaterialSelection  `json:"materials"`
	Furniture []FurnitureSelection `json:"furniture"`
	Pricing   Summary              `json:"pricing"`
}

// Estimate resolves material and furniture references against the catalogs
// and aggregates the full price breakdown.
//
// Pricing is best effort: a material id that resolves to nothing contributes
// no line and no cost, and a furniture id that resolves to nothing falls
// back to the unit price supplied on the line. Only catalog I/O failures
// abort the computation.
func Estimate(areas Areas, materialRefs map[string]int64, furniture []FurnitureLine, adj Adjustments, materials MaterialCatalog, furnishings FurnitureCatalog) (Quote, error) {
	quote := Quote{
		Areas:     areas,
		Materials: make([]MaterialSelection, 0, len(materialRefs)),
		Furniture: make([]FurnitureSelection, 0, len(furniture)),
	}

	materialsCost := 0.0
	for _, surface := range surfaceOrder {
		id, ok := materialRefs[surface]
		if !ok || id == 0 {
			continue
		}

		mat, found, err := materials.MaterialByID(id)
		if err != nil {
			return Quote{}, err
		}
		if !found {
			continue
		}

		area := AssignedArea(areas, surface)
		lineTotal := mat.PricePerUnit * area
		materialsCost += lineTotal

		quote.Materials = append(quote.Materials, MaterialSelection{
			Surface:      surface,
			MaterialID:   id,
			Name:         mat.Name,
			NameEn:       mat.NameEn,
			Type:         mat.Type,
			MaterialType: mat.MaterialType,
			Value:        mat.Value,
			PricePerUnit: mat.PricePerUnit,
			AssignedArea: area,
			LineTotal:    lineTotal,
		})
	}

	furnitureCost := 0.0
	for _, line := range furniture {
		name := line.Name
		unitPrice := line.UnitPrice

		if line.FurnitureID != 0 {
			item, found, err := furnishings.FurnitureByID(line.FurnitureID)
			if err != nil {
				return Quote{}, err
			}
			if found {
				unitPrice = item.UnitPrice
				if name == "" {
					name = item.Name
				}
			}
		}

		quantity := line.Quantity
		if quantity < 1 {
			quantity = 1
		}

		lineTotal := unitPrice * float64(quantity)
		furnitureCost += lineTotal

		quote.Furniture = append(quote.Furniture, FurnitureSelection{
			FurnitureID: line.FurnitureID,
			Name:        name,
			UnitPrice:   unitPrice,
			Quantity:    quantity,
			LineTotal:   lineTotal,
		})
	}

	currency := adj.Currency
	if currency == "" {
		currency = "USD"
	}

	subtotal := materialsCost + furnitureCost + adj.AdditionalCost
	afterDiscount := subtotal - adj.Discount
	taxAmount := afterDiscount * (adj.TaxRate / 100)

	quote.Pricing = Summary{
		MaterialsCost:  materialsCost,
		FurnitureCost:  furnitureCost,
		AdditionalCost: adj.AdditionalCost,
		Discount:       adj.Discount,
		TaxRate:        adj.TaxRate,
		TaxAmount:      taxAmount,
		TotalPrice:     afterDiscount + taxAmount,
		Currency:       currency,
	}

	return quote, nil
}
