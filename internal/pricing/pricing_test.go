package pricing

import (
	"math"
	"reflect"
	"testing"
)

type fakeMaterials map[int64]Material

func (f fakeMaterials) MaterialByID(id int64) (Material, bool, error) {
	m, ok := f[id]
	return m, ok, nil
}

type fakeFurniture map[int64]Furniture

func (f fakeFurniture) FurnitureByID(id int64) (Furniture, bool, error) {
	item, ok := f[id]
	return item, ok, nil
}

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestComputeAreas_Identities(t *testing.T) {
	for _, d := range []Dimensions{
		{Width: 5, Length: 5, Height: 3},
		{Width: 2.5, Length: 7.1, Height: 2.8},
		{Width: 0.1, Length: 0.1, Height: 0.1},
	} {
		areas, err := ComputeAreas(d)
		if err != nil {
			t.Fatalf("ComputeAreas(%+v) returned error: %v", d, err)
		}

		nearlyEqual(t, "floor", areas.Floor, d.Width*d.Length)
		nearlyEqual(t, "ceiling", areas.Ceiling, areas.Floor)
		nearlyEqual(t, "walls", areas.Walls, 2*(d.Width*d.Height)+2*(d.Length*d.Height))
		nearlyEqual(t, "total", areas.Total, areas.Floor+areas.Ceiling+areas.Walls)
	}
}

func TestComputeAreas_RejectsInvalidDimensions(t *testing.T) {
	for _, d := range []Dimensions{
		{},
		{Width: 5, Length: 5},
		{Width: -1, Length: 5, Height: 3},
		{Width: 5, Length: 0, Height: 3},
		{Width: math.NaN(), Length: 5, Height: 3},
		{Width: 5, Length: math.Inf(1), Height: 3},
	} {
		if _, err := ComputeAreas(d); err != ErrInvalidDimensions {
			t.Fatalf("ComputeAreas(%+v) err = %v, want ErrInvalidDimensions", d, err)
		}
	}
}

func TestDefaultDimensions(t *testing.T) {
	d := DefaultDimensions()
	if d.Width != 5 || d.Length != 5 || d.Height != 3 {
		t.Fatalf("unexpected default dimensions: %+v", d)
	}
}

func TestAssignedAreaQuartersWalls(t *testing.T) {
	areas := Areas{Floor: 25, Ceiling: 25, Walls: 40, Total: 90}

	nearlyEqual(t, "floor", AssignedArea(areas, SurfaceFloor), 25)
	nearlyEqual(t, "ceiling", AssignedArea(areas, SurfaceCeiling), 25)
	for _, surface := range []string{SurfaceWall, SurfaceLeftWall, SurfaceRightWall, SurfaceBackWall, SurfaceFrontWall} {
		nearlyEqual(t, surface, AssignedArea(areas, surface), 10)
	}
}

func TestEstimate_FloorMaterialWithTax(t *testing.T) {
	// Worked example: 5x5x3 room, one $10/m2 floor material, 10% tax.
	areas, err := ComputeAreas(Dimensions{Width: 5, Length: 5, Height: 3})
	if err != nil {
		t.Fatalf("ComputeAreas returned error: %v", err)
	}

	nearlyEqual(t, "floor", areas.Floor, 25)
	nearlyEqual(t, "walls", areas.Walls, 60)
	nearlyEqual(t, "total", areas.Total, 110)

	materials := fakeMaterials{1: {Name: "Ceramic tile", PricePerUnit: 10}}
	quote, err := Estimate(areas, map[string]int64{SurfaceFloor: 1}, nil, Adjustments{TaxRate: 10}, materials, fakeFurniture{})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	if len(quote.Materials) != 1 {
		t.Fatalf("expected 1 material line, got %d", len(quote.Materials))
	}
	nearlyEqual(t, "lineTotal", quote.Materials[0].LineTotal, 250)
	nearlyEqual(t, "materialsCost", quote.Pricing.MaterialsCost, 250)
	nearlyEqual(t, "taxAmount", quote.Pricing.TaxAmount, 25)
	nearlyEqual(t, "totalPrice", quote.Pricing.TotalPrice, 275)
	if quote.Pricing.Currency != "USD" {
		t.Fatalf("expected default currency USD, got %q", quote.Pricing.Currency)
	}
}

func TestEstimate_FurnitureOnlyWithDiscount(t *testing.T) {
	areas := Areas{Floor: 25, Ceiling: 25, Walls: 60, Total: 110}
	lines := []FurnitureLine{{Name: "Sofa", UnitPrice: 100, Quantity: 3}}

	quote, err := Estimate(areas, nil, lines, Adjustments{Discount: 50}, fakeMaterials{}, fakeFurniture{})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	nearlyEqual(t, "lineTotal", quote.Furniture[0].LineTotal, 300)
	nearlyEqual(t, "furnitureCost", quote.Pricing.FurnitureCost, 300)
	nearlyEqual(t, "materialsCost", quote.Pricing.MaterialsCost, 0)
	nearlyEqual(t, "totalPrice", quote.Pricing.TotalPrice, 250)
}

func TestEstimate_QuantityDoublingDoublesLineTotal(t *testing.T) {
	areas := Areas{Floor: 25, Ceiling: 25, Walls: 60, Total: 110}

	single, err := Estimate(areas, nil, []FurnitureLine{{Name: "Chair", UnitPrice: 40, Quantity: 2}}, Adjustments{}, fakeMaterials{}, fakeFurniture{})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	double, err := Estimate(areas, nil, []FurnitureLine{{Name: "Chair", UnitPrice: 40, Quantity: 4}}, Adjustments{}, fakeMaterials{}, fakeFurniture{})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	nearlyEqual(t, "doubled lineTotal", double.Furniture[0].LineTotal, 2*single.Furniture[0].LineTotal)
	nearlyEqual(t, "doubled furnitureCost", double.Pricing.FurnitureCost, 2*single.Pricing.FurnitureCost)
}

func TestEstimate_NonPositiveQuantityClampsToOne(t *testing.T) {
	areas := Areas{Floor: 25, Ceiling: 25, Walls: 60, Total: 110}

	for _, quantity := range []int{0, -3} {
		quote, err := Estimate(areas, nil, []FurnitureLine{{Name: "Lamp", UnitPrice: 30, Quantity: quantity}}, Adjustments{}, fakeMaterials{}, fakeFurniture{})
		if err != nil {
			t.Fatalf("Estimate returned error: %v", err)
		}
		if quote.Furniture[0].Quantity != 1 {
			t.Fatalf("quantity %d: expected clamp to 1, got %d", quantity, quote.Furniture[0].Quantity)
		}
		nearlyEqual(t, "clamped lineTotal", quote.Furniture[0].LineTotal, 30)
	}
}

func TestEstimate_MissingMaterialContributesNothing(t *testing.T) {
	areas := Areas{Floor: 25, Ceiling: 25, Walls: 60, Total: 110}
	materials := fakeMaterials{1: {Name: "Paint", PricePerUnit: 5}}
	refs := map[string]int64{
		SurfaceFloor:    1,
		SurfaceLeftWall: 999, // not in the catalog
	}

	quote, err := Estimate(areas, refs, nil, Adjustments{}, materials, fakeFurniture{})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	if len(quote.Materials) != 1 || quote.Materials[0].Surface != SurfaceFloor {
		t.Fatalf("expected only the floor line, got %+v", quote.Materials)
	}
	nearlyEqual(t, "materialsCost", quote.Pricing.MaterialsCost, 125)
}

func TestEstimate_MissingFurnitureFallsBackToSuppliedPrice(t *testing.T) {
	areas := Areas{Floor: 25, Ceiling: 25, Walls: 60, Total: 110}
	lines := []FurnitureLine{
		{FurnitureID: 7, Name: "Table", UnitPrice: 80, Quantity: 1}, // catalog miss
		{FurnitureID: 8, Name: "", UnitPrice: 999, Quantity: 2},     // catalog hit overrides price
		{FurnitureID: 9, Quantity: 1},                               // miss with no supplied price
	}
	furnishings := fakeFurniture{8: {Name: "Bed", UnitPrice: 150}}

	quote, err := Estimate(areas, nil, lines, Adjustments{}, fakeMaterials{}, furnishings)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	nearlyEqual(t, "miss fallback", quote.Furniture[0].LineTotal, 80)
	nearlyEqual(t, "catalog price", quote.Furniture[1].UnitPrice, 150)
	if quote.Furniture[1].Name != "Bed" {
		t.Fatalf("expected catalog name Bed, got %q", quote.Furniture[1].Name)
	}
	nearlyEqual(t, "absent price", quote.Furniture[2].LineTotal, 0)
	nearlyEqual(t, "furnitureCost", quote.Pricing.FurnitureCost, 80+300)
}

func TestEstimate_WallAreaSplit(t *testing.T) {
	areas := Areas{Floor: 30, Ceiling: 30, Walls: 40, Total: 100}
	materials := fakeMaterials{2: {Name: "Wallpaper", PricePerUnit: 3}}

	quote, err := Estimate(areas, map[string]int64{SurfaceLeftWall: 2}, nil, Adjustments{}, materials, fakeFurniture{})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	nearlyEqual(t, "assignedArea", quote.Materials[0].AssignedArea, 10)
	nearlyEqual(t, "lineTotal", quote.Materials[0].LineTotal, 30)
}

func TestEstimate_TaxDiscountComposition(t *testing.T) {
	areas := Areas{Floor: 25, Ceiling: 25, Walls: 60, Total: 110}
	materials := fakeMaterials{1: {Name: "Plaster", PricePerUnit: 4}}
	lines := []FurnitureLine{{Name: "Shelf", UnitPrice: 60, Quantity: 2}}
	adj := Adjustments{AdditionalCost: 35, Discount: 20, TaxRate: 15}

	quote, err := Estimate(areas, map[string]int64{SurfaceCeiling: 1}, lines, adj, materials, fakeFurniture{})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	p := quote.Pricing
	want := (p.MaterialsCost + p.FurnitureCost + adj.AdditionalCost - adj.Discount) * (1 + adj.TaxRate/100)
	nearlyEqual(t, "totalPrice", p.TotalPrice, want)
	nearlyEqual(t, "taxAmount", p.TaxAmount, p.TotalPrice-(p.MaterialsCost+p.FurnitureCost+p.AdditionalCost-p.Discount))
}

func TestDiscountExceedingSubtotalGoesNegative(t *testing.T) {
	// Documented behavior: afterDiscount is not clamped at zero, so an
	// oversized discount yields a negative total.
	areas := Areas{Floor: 25, Ceiling: 25, Walls: 60, Total: 110}
	lines := []FurnitureLine{{Name: "Stool", UnitPrice: 25, Quantity: 1}}

	quote, err := Estimate(areas, nil, lines, Adjustments{Discount: 100, TaxRate: 10}, fakeMaterials{}, fakeFurniture{})
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	nearlyEqual(t, "taxAmount", quote.Pricing.TaxAmount, -7.5)
	nearlyEqual(t, "totalPrice", quote.Pricing.TotalPrice, -82.5)
}

func TestEstimate_Idempotent(t *testing.T) {
	areas := Areas{Floor: 25, Ceiling: 25, Walls: 60, Total: 110}
	materials := fakeMaterials{
		1: {Name: "Tile", PricePerUnit: 12},
		2: {Name: "Paint", PricePerUnit: 2.5},
	}
	refs := map[string]int64{SurfaceFloor: 1, SurfaceBackWall: 2, SurfaceFrontWall: 2}
	lines := []FurnitureLine{{FurnitureID: 3, Quantity: 2}, {Name: "Rug", UnitPrice: 45, Quantity: 1}}
	furnishings := fakeFurniture{3: {Name: "Wardrobe", UnitPrice: 220}}
	adj := Adjustments{AdditionalCost: 10, Discount: 5, TaxRate: 11, Currency: "SYP"}

	first, err := Estimate(areas, refs, lines, adj, materials, furnishings)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	second, err := Estimate(areas, refs, lines, adj, materials, furnishings)
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical quotes, got\n%+v\nvs\n%+v", first, second)
	}
	if second.Pricing.Currency != "SYP" {
		t.Fatalf("expected currency pass-through, got %q", second.Pricing.Currency)
	}
}
