// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package example walks through tinyorm with a small order book: orders
// referencing the stock of a warehouse.
package example

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/canonical/tinyorm"
	"github.com/canonical/tinyorm/sqlite"
)

type OrderTable struct {
	OrderID     string
	Name        string
	Phone       string
	Address     string
	CommodityID string
	Count       int
	Date        tinyorm.Nullable[string]
}

func (OrderTable) TableName() string { return "OrderTable" }

type Warehouse struct {
	CommodityID   string
	StockQuantity int
	Price         float64
	DateOfStorage tinyorm.Nullable[string]
}

func (Warehouse) TableName() string { return "Warehouse" }

// fields holds the typed handles used by the walkthrough.
type fields struct {
	orderID     tinyorm.Field[string]
	name        tinyorm.Field[string]
	commodityID tinyorm.Field[string]
	count       tinyorm.Field[int]
	date        tinyorm.Field[string]

	stockCommodityID tinyorm.Field[string]
	stockQuantity    tinyorm.Field[int]
	price            tinyorm.Field[float64]
}

func lookupFields() (fields, error) {
	reg, err := tinyorm.NewFieldRegistry(OrderTable{}, Warehouse{})
	if err != nil {
		return fields{}, err
	}
	var f fields
	var errs [8]error
	f.orderID, errs[0] = tinyorm.Lookup[string](reg, OrderTable{}, "OrderID")
	f.name, errs[1] = tinyorm.Lookup[string](reg, OrderTable{}, "Name")
	f.commodityID, errs[2] = tinyorm.Lookup[string](reg, OrderTable{}, "CommodityID")
	f.count, errs[3] = tinyorm.Lookup[int](reg, OrderTable{}, "Count")
	f.date, errs[4] = tinyorm.Lookup[string](reg, OrderTable{}, "Date")
	f.stockCommodityID, errs[5] = tinyorm.Lookup[string](reg, Warehouse{}, "CommodityID")
	f.stockQuantity, errs[6] = tinyorm.Lookup[int](reg, Warehouse{}, "StockQuantity")
	f.price, errs[7] = tinyorm.Lookup[float64](reg, Warehouse{}, "Price")
	for _, err := range errs {
		if err != nil {
			return fields{}, err
		}
	}
	return f, nil
}

// Run creates the order book in a new in-memory database, runs a few
// queries on it and prints their results to w.
func Run(ctx context.Context, w io.Writer, opts *tinyorm.Options) error {
	db, err := sqlite.Open(":memory:", nil)
	if err != nil {
		return err
	}
	defer db.Close()
	m, err := tinyorm.NewDBManager(ctx, db, opts)
	if err != nil {
		return err
	}
	f, err := lookupFields()
	if err != nil {
		return err
	}

	if err := createTables(ctx, m, f); err != nil {
		return err
	}
	if err := fill(ctx, m, w); err != nil {
		return err
	}
	if err := report(ctx, m, f, w); err != nil {
		return err
	}

	err = m.DeleteWhere(ctx, OrderTable{}, tinyorm.Like(f.orderID, "000001%"))
	if err != nil {
		return err
	}
	left, err := tinyorm.Aggregate(ctx, tinyorm.Query(m, OrderTable{}), tinyorm.Count())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "orders left: %v\n", left)
	return nil
}

func createTables(ctx context.Context, m *tinyorm.DBManager, f fields) error {
	// create table Warehouse(CommodityID text not null primary key,
	// StockQuantity integer not null,Price real not null,DateOfStorage text,
	// check ((Warehouse.StockQuantity>=0 and Warehouse.Price>0)));
	err := m.CreateTbl(ctx, Warehouse{},
		tinyorm.Check(f.stockQuantity.Ge(0).And(f.price.Gt(0))))
	if err != nil {
		return err
	}
	return m.CreateTbl(ctx, OrderTable{},
		tinyorm.Default(f.count, 1),
		tinyorm.Check(f.count.Gt(0)),
		tinyorm.Reference(f.commodityID, f.stockCommodityID))
}

func fill(ctx context.Context, m *tinyorm.DBManager, w io.Writer) error {
	stock := []Warehouse{
		{"00003", 1024, 30.5, tinyorm.Null[string]()},
		{"00013", 2048, 88.75, tinyorm.Null[string]()},
		{"00010", 3192, 50.0, tinyorm.NewNullable("2020-12-25")},
		{"00042", 4096, 100.0, tinyorm.Null[string]()},
		{"00101", 8192, 13.0, tinyorm.Null[string]()},
	}
	if err := tinyorm.InsertRange(ctx, m, stock); err != nil {
		return err
	}

	buyer1 := []OrderTable{
		{"000001-1", "Jack", "123456789", "China", "00003", 5, tinyorm.NewNullable("2021-05-11")},
		{"000001-2", "Jack", "123456789", "China", "00013", 3, tinyorm.NewNullable("2021-05-11")},
		{"000001-3", "Jack", "123456789", "China", "00010", 2, tinyorm.NewNullable("2021-05-11")},
	}
	buyer2 := []OrderTable{
		{"000002-1", "Rose", "987654321", "USA", "00101", 10, tinyorm.NewNullable("2021-03-04")},
		{"000002-2", "Rose", "987654321", "USA", "00042", 25, tinyorm.NewNullable("2021-03-04")},
	}
	buyer3 := OrderTable{"000003-1", "David", "0010110123", "UK", "00003", 5, tinyorm.Null[string]()}
	if err := tinyorm.InsertRange(ctx, m, buyer1); err != nil {
		return err
	}
	if err := tinyorm.InsertRange(ctx, m, buyer2); err != nil {
		return err
	}
	if err := m.Insert(ctx, buyer3); err != nil {
		return err
	}

	err := m.Transaction(ctx, func(tx *tinyorm.DBManager) error {
		return tx.Insert(ctx, OrderTable{"000004-1", "Penny", "55555333331", "Thailand", "00042", 1, tinyorm.Null[string]()})
	})
	if err != nil {
		return err
	}
	// The second order breaks the count check, so neither is stored.
	err = m.Transaction(ctx, func(tx *tinyorm.DBManager) error {
		if err := tx.Insert(ctx, OrderTable{"000004-2", "Penny", "55555333331", "Thailand", "00013", 2, tinyorm.Null[string]()}); err != nil {
			return err
		}
		return tx.Insert(ctx, OrderTable{"000004-3", "Penny", "55555333331", "Thailand", "00010", 0, tinyorm.Null[string]()})
	})
	if err != nil {
		fmt.Fprintln(w, "transaction rolled back")
	}

	buyer3.Date.Set("2021-01-01")
	if err := m.Update(ctx, buyer3); err != nil {
		return err
	}
	for i := range buyer1 {
		buyer1[i].Count += 3
	}
	return tinyorm.UpdateRange(ctx, m, buyer1)
}

func report(ctx context.Context, m *tinyorm.DBManager, f fields, w io.Writer) error {
	// select OrderTable.OrderID,OrderTable.Name,OrderTable.CommodityID,
	// OrderTable.Count from OrderTable where (OrderTable.OrderID like
	// '000001-%') order by OrderTable.Count;
	rows, err := tinyorm.Query(m, OrderTable{}).
		Select(f.orderID, f.name, f.commodityID, f.count).
		Where(tinyorm.Like(f.orderID, "000001-%")).
		OrderBy(f.count).
		ToTuples(ctx)
	if err != nil {
		return err
	}
	printTuples(w, rows)

	joined := tinyorm.Query(m, OrderTable{}).
		Join(Warehouse{}, f.commodityID.EqExpr(f.stockCommodityID))
	cost := tinyorm.Mul(tinyorm.Promote[float64](f.count), f.price)

	for _, agg := range []tinyorm.AggregateField[float64]{tinyorm.Sum(cost), tinyorm.Avg(cost)} {
		rows, err = joined.Select(f.name, agg).Where(f.name.Eq("Jack")).ToTuples(ctx)
		if err != nil {
			return err
		}
		printTuples(w, rows)
	}

	rows, err = joined.
		Select(f.name, tinyorm.Avg(cost)).
		GroupBy(f.name).
		Having(tinyorm.Sum(cost).Ge(200)).
		OrderBy(f.name).
		ToTuples(ctx)
	if err != nil {
		return err
	}
	printTuples(w, rows)

	cheapest, err := tinyorm.Aggregate(ctx, joined, tinyorm.Min(cost))
	if err != nil {
		return err
	}
	dearest, err := tinyorm.Aggregate(ctx, joined, tinyorm.Max(cost))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "cheapest line: %v\ndearest line: %v\n", cheapest, dearest)

	jack, err := tinyorm.Aggregate(ctx, tinyorm.Query(m, OrderTable{}).Where(f.name.Eq("Jack")), tinyorm.Sum(f.count))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Jack ordered %v items\n", jack)

	orders, err := tinyorm.Query(m, OrderTable{}).Where(f.date.IsNotNull().And(f.name.Eq("David"))).ToVector(ctx)
	if err != nil {
		return err
	}
	for _, o := range orders {
		fmt.Fprintf(w, "%s's order date: %v\n", o.Name, o.Date)
	}
	return nil
}

func printTuples(w io.Writer, rows []tinyorm.Tuple) {
	for _, row := range rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = fmt.Sprint(v)
		}
		fmt.Fprintf(w, "[ %s ]\n", strings.Join(values, ", "))
	}
}
