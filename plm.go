// Package plm computes manufacturing KPIs, process-mining views and
// bottleneck analyses over ERP, MES and PLM extracts.
//
// Usage:
//
//	import "github.com/NotHilal/PLM-Hackaton/engine"
//
//	calc := engine.New(erp, mes, plm,
//	    engine.WithPolicy(policy),
//	    engine.WithLogger(log),
//	)
//	kpis := calc.All()
//
// Every section degrades to a fixed fallback when its table or columns are
// missing, so callers always receive a complete result. Tables are loaded by
// the loader package and held in an atomically swapped snapshot by the store
// package. The analytics package memoizes all views per snapshot and the
// plmkpi command prints them.
package plm
