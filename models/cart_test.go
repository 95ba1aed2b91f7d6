package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddItemMergesExistingLine(t *testing.T) {
	p := primitive.NewObjectID()
	cart := &Cart{}

	cart.AddItem(p, 2)
	got := cart.AddItem(p, 3)

	if got != 5 {
		t.Fatalf("expected merged quantity 5, got %d", got)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected exactly one line after merging, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("expected line quantity 5, got %d", cart.Items[0].Quantity)
	}
}

func TestAddItemAppendsNewLine(t *testing.T) {
	p1 := primitive.NewObjectID()
	p2 := primitive.NewObjectID()
	cart := &Cart{}

	cart.AddItem(p1, 1)
	cart.AddItem(p2, 4)

	if len(cart.Items) != 2 {
		t.Fatalf("expected two lines, got %d", len(cart.Items))
	}
	if item := cart.Item(p2); item == nil || item.Quantity != 4 {
		t.Fatalf("expected a line for p2 with quantity 4, got %+v", item)
	}
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	p := primitive.NewObjectID()
	cart := &Cart{}
	cart.AddItem(p, 3)

	if !cart.SetQuantity(p, 0) {
		t.Fatal("expected SetQuantity on an existing line to succeed")
	}
	if !cart.IsEmpty() {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Items))
	}

	// removing the already-removed line is a no-op, not an error
	if cart.RemoveItem(p) {
		t.Fatal("expected RemoveItem on an absent line to report false")
	}
	if !cart.IsEmpty() {
		t.Fatal("expected cart to stay empty")
	}
}

func TestSetQuantityMissingLine(t *testing.T) {
	cart := &Cart{}
	if cart.SetQuantity(primitive.NewObjectID(), 2) {
		t.Fatal("expected SetQuantity on a missing line to report false")
	}
}

func TestRemoveItemKeepsOtherLines(t *testing.T) {
	p1 := primitive.NewObjectID()
	p2 := primitive.NewObjectID()
	p3 := primitive.NewObjectID()
	cart := &Cart{}
	cart.AddItem(p1, 1)
	cart.AddItem(p2, 2)
	cart.AddItem(p3, 3)

	if !cart.RemoveItem(p2) {
		t.Fatal("expected RemoveItem to report a removed line")
	}
	if len(cart.Items) != 2 {
		t.Fatalf("expected two lines left, got %d", len(cart.Items))
	}
	if cart.Items[0].ProductID != p1 || cart.Items[1].ProductID != p3 {
		t.Fatal("expected remaining lines to keep their order")
	}
}
