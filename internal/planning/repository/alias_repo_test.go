package repository

import (
	"context"
	"testing"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/testutil"
)

func TestAliasUpsertKeepsHighestConfidence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewAliasRepository(db)
	ctx := context.Background()

	if err := repo.Upsert(ctx, &entity.PartAlias{
		SupplierName:    "Acme Corp",
		VendorPartID:    "ACME VALVE 100",
		CanonicalPartID: "VLV-100",
		Confidence:      95,
	}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// A later, weaker match for the same key must not downgrade the record
	if err := repo.Upsert(ctx, &entity.PartAlias{
		SupplierName:    "Acme Corp",
		VendorPartID:    "ACME VALVE 100",
		CanonicalPartID: "VLV-100",
		Confidence:      80,
	}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	alias, err := repo.Lookup(ctx, "Acme Corp", "ACME VALVE 100")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if alias.Confidence != 95 {
		t.Errorf("confidence = %d, want 95 (lower upsert must not downgrade)", alias.Confidence)
	}

	// A stronger match upgrades it
	if err := repo.Upsert(ctx, &entity.PartAlias{
		SupplierName:    "Acme Corp",
		VendorPartID:    "ACME VALVE 100",
		CanonicalPartID: "VLV-100",
		Confidence:      99,
	}); err != nil {
		t.Fatalf("third upsert failed: %v", err)
	}
	alias, err = repo.Lookup(ctx, "Acme Corp", "ACME VALVE 100")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if alias.Confidence != 99 {
		t.Errorf("confidence = %d, want 99", alias.Confidence)
	}

	// Same key throughout: exactly one row
	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 alias row, got %d", len(all))
	}
}

func TestAliasLookupScopedBySupplier(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewAliasRepository(db)
	ctx := context.Background()

	if err := repo.Upsert(ctx, &entity.PartAlias{
		SupplierName:    "Acme Corp",
		VendorPartID:    "VALVE 100",
		CanonicalPartID: "VLV-100",
		Confidence:      95,
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Same vendor part id under a different supplier is a distinct key
	if _, err := repo.Lookup(ctx, "Pipeworks Ltd", "VALVE 100"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for other supplier, got %v", err)
	}

	alias, err := repo.Lookup(ctx, "Acme Corp", "VALVE 100")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if alias.CanonicalPartID != "VLV-100" {
		t.Errorf("canonical part = %s, want VLV-100", alias.CanonicalPartID)
	}
}
