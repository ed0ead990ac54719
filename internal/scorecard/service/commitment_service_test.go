package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/testutil"
)

func TestCommitment_InvoicesAndAccrual(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "PO1")

	po, err := svcs.Commitment.CreatePO(ctx, p.ID, &CreatePORequest{
		Supplier: "Acme Surveys", Description: "Geotechnical survey", CommitmentValue: 10000,
	})
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}
	if po.PONumber != "PO1-PO-001" || po.IssueDate != "2025-06-18" || po.RemainingCommitment != 10000 {
		t.Errorf("unexpected PO: %+v", po)
	}

	if _, _, err := svcs.Commitment.RecordInvoice(ctx, po.ID, &RecordInvoiceRequest{InvoiceNumber: "INV-1", InvoiceDate: "2025-06-10", Amount: 2000}); err != nil {
		t.Fatalf("RecordInvoice failed: %v", err)
	}
	_, po, err = svcs.Commitment.RecordInvoice(ctx, po.ID, &RecordInvoiceRequest{InvoiceNumber: "INV-2", Amount: 3000})
	if err != nil {
		t.Fatalf("RecordInvoice failed: %v", err)
	}
	if po.InvoicedToDate != 5000 || po.RemainingCommitment != 5000 {
		t.Errorf("after invoices = %v/%v, want 5000/5000", po.InvoicedToDate, po.RemainingCommitment)
	}

	po, err = svcs.Commitment.UpdateAccrual(ctx, po.ID, 1000)
	if err != nil {
		t.Fatalf("UpdateAccrual failed: %v", err)
	}
	if po.InvoicedToDate != 5000 || po.AccruedWorkDone != 1000 || po.RemainingCommitment != 4000 {
		t.Errorf("after accrual = %+v, want invoiced 5000 remaining 4000", po)
	}

	stored, err := svcs.Commitment.Get(ctx, po.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(stored.Invoices) != 2 || stored.RemainingCommitment != 4000 {
		t.Errorf("stored PO = %d invoices, remaining %v", len(stored.Invoices), stored.RemainingCommitment)
	}

	po, err = svcs.Commitment.UpdatePO(ctx, po.ID, &UpdatePORequest{CommitmentValue: testutil.Ptr(12000.0)})
	if err != nil {
		t.Fatalf("UpdatePO failed: %v", err)
	}
	if po.RemainingCommitment != 6000 {
		t.Errorf("remaining after raising commitment = %v, want 6000", po.RemainingCommitment)
	}
}

func TestCommitment_ListProjectInvoices(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "PO4")
	other := testutil.SeedProject(t, db, "PO5")

	record := func(projectID, supplier string, invoices ...RecordInvoiceRequest) {
		t.Helper()
		po, err := svcs.Commitment.CreatePO(ctx, projectID, &CreatePORequest{Supplier: supplier, Description: "Site works", CommitmentValue: 10000})
		if err != nil {
			t.Fatalf("CreatePO failed: %v", err)
		}
		for i := range invoices {
			if _, _, err := svcs.Commitment.RecordInvoice(ctx, po.ID, &invoices[i]); err != nil {
				t.Fatalf("RecordInvoice failed: %v", err)
			}
		}
	}
	record(p.ID, "Acme Surveys",
		RecordInvoiceRequest{InvoiceNumber: "A-2", InvoiceDate: "2025-06-12", Amount: 200},
		RecordInvoiceRequest{InvoiceNumber: "A-1", InvoiceDate: "2025-06-01", Amount: 100})
	record(p.ID, "Beta Drilling",
		RecordInvoiceRequest{InvoiceNumber: "B-1", InvoiceDate: "2025-06-05", Amount: 300})
	record(other.ID, "Gamma Labs",
		RecordInvoiceRequest{InvoiceNumber: "G-1", InvoiceDate: "2025-06-03", Amount: 400})

	invoices, err := svcs.Commitment.ListProjectInvoices(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListProjectInvoices failed: %v", err)
	}
	var numbers []string
	for _, inv := range invoices {
		numbers = append(numbers, inv.InvoiceNumber)
	}
	if fmt.Sprint(numbers) != "[A-1 B-1 A-2]" {
		t.Errorf("invoice order = %v, want [A-1 B-1 A-2]", numbers)
	}
}

func TestCommitment_Validation(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "PO2")

	if _, err := svcs.Commitment.CreatePO(ctx, p.ID, &CreatePORequest{Description: "x", CommitmentValue: 1}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing supplier: expected ErrValidation, got %v", err)
	}
	if _, err := svcs.Commitment.CreatePO(ctx, p.ID, &CreatePORequest{Supplier: "s", Description: "x", CommitmentValue: -1}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative commitment: expected ErrValidation, got %v", err)
	}

	po, err := svcs.Commitment.CreatePO(ctx, p.ID, &CreatePORequest{Supplier: "s", Description: "x", CommitmentValue: 100})
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}
	for _, amount := range []float64{0, -5} {
		if _, _, err := svcs.Commitment.RecordInvoice(ctx, po.ID, &RecordInvoiceRequest{InvoiceNumber: "I", Amount: amount}); !errors.Is(err, ErrValidation) {
			t.Errorf("amount %v: expected ErrValidation, got %v", amount, err)
		}
	}
	if _, _, err := svcs.Commitment.RecordInvoice(ctx, po.ID, &RecordInvoiceRequest{InvoiceNumber: "I", InvoiceDate: "18/06/2025", Amount: 1}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad date: expected ErrValidation, got %v", err)
	}
	if _, err := svcs.Commitment.UpdateAccrual(ctx, po.ID, -1); !errors.Is(err, ErrValidation) {
		t.Errorf("negative accrual: expected ErrValidation, got %v", err)
	}
}

func TestCommitment_StatusTransitions(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "PO3")

	if _, err := svcs.Commitment.CreatePO(ctx, p.ID, &CreatePORequest{Supplier: "a", Description: "open", CommitmentValue: 1000}); err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}
	cancelled, _ := svcs.Commitment.CreatePO(ctx, p.ID, &CreatePORequest{Supplier: "b", Description: "cancel", CommitmentValue: 500})

	if _, err := svcs.Commitment.UpdatePO(ctx, cancelled.ID, &UpdatePORequest{Status: testutil.Ptr("reopened")}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown status: expected ErrValidation, got %v", err)
	}
	got, err := svcs.Commitment.UpdatePO(ctx, cancelled.ID, &UpdatePORequest{Status: testutil.Ptr(entity.POStatusCancelled)})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got.CloseDate == nil || *got.CloseDate != "2025-06-18" {
		t.Errorf("close date = %v", got.CloseDate)
	}
	if _, _, err := svcs.Commitment.RecordInvoice(ctx, cancelled.ID, &RecordInvoiceRequest{InvoiceNumber: "I", Amount: 10}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("invoice on cancelled PO: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svcs.Commitment.UpdatePO(ctx, cancelled.ID, &UpdatePORequest{Status: testutil.Ptr(entity.POStatusClosed)}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancelled -> closed: expected ErrInvalidTransition, got %v", err)
	}

	totals, err := svcs.Commitment.Totals(ctx, p.ID)
	if err != nil {
		t.Fatalf("Totals failed: %v", err)
	}
	if totals.CommitmentValue != 1000 || totals.RemainingCommitment != 1000 {
		t.Errorf("totals should exclude cancelled PO: %+v", totals)
	}
}

func TestRecordInvoice_Concurrent(t *testing.T) {
	db, svcs := setupServices(t, "2025-06-18")
	ctx := context.Background()
	p := testutil.SeedProject(t, db, "PO4")
	po, err := svcs.Commitment.CreatePO(ctx, p.ID, &CreatePORequest{Supplier: "s", Description: "x", CommitmentValue: 10000})
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := svcs.Commitment.RecordInvoice(ctx, po.ID, &RecordInvoiceRequest{
				InvoiceNumber: fmt.Sprintf("INV-%02d", i), Amount: 100,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent RecordInvoice failed: %v", err)
		}
	}

	got, _ := svcs.Commitment.Get(ctx, po.ID)
	if got.InvoicedToDate != 1000 || got.RemainingCommitment != 9000 || len(got.Invoices) != n {
		t.Errorf("after concurrent invoices = invoiced %v remaining %v count %d", got.InvoicedToDate, got.RemainingCommitment, len(got.Invoices))
	}
}
