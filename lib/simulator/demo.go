// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"fmt"
	"math"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// Namespace URIs of the simulator. The demo nodes live in the demo
// namespace at index 2.
const (
	NamespaceStandard  = ua.NamespaceStandard
	NamespaceSimulator = "urn:uaconsole:simulator"
	NamespaceDemo      = "http://www.unifiedautomation.com/DemoServer/"

	demoNamespace uint16 = 2
)

// Namespaces is the namespace array the simulator publishes.
var Namespaces = ua.NamespaceTable{NamespaceStandard, NamespaceSimulator, NamespaceDemo}

func demoID(name string) ua.NodeID { return ua.NewStringNodeID(demoNamespace, name) }

// Demo node ids.
var (
	DemoFolder                  = demoID("Demo")
	DemoStaticScalarBoolean     = demoID("Demo.Static.Scalar.Boolean")
	DemoStaticScalarDouble      = demoID("Demo.Static.Scalar.Double")
	DemoStaticScalarWorkOrder   = demoID("Demo.Static.Scalar.WorkOrder")
	DemoStaticArraysBoolean     = demoID("Demo.Static.Arrays.Boolean")
	DemoStaticArraysDouble      = demoID("Demo.Static.Arrays.Double")
	DemoStaticArraysInt32       = demoID("Demo.Static.Arrays.Int32")
	DemoDynamicScalarDouble     = demoID("Demo.Dynamic.Scalar.Double")
	DemoDynamicArraysDouble     = demoID("Demo.Dynamic.Arrays.Double")
	DemoMassfolder              = demoID("Demo.Massfolder_Static")
	DemoMethod                  = demoID("Demo.Method")
	DemoMethodMultiply          = demoID("Demo.Method.Multiply")
	DemoHistoryByte             = demoID("Demo.History.ByteWithHistory")
	DemoHistoryDouble           = demoID("Demo.History.DoubleWithHistory")
	DemoHistorian1              = demoID("Demo.History.Historian_1")
	DemoHistorian2              = demoID("Demo.History.Historian_2")
	DemoNotifierWithHistory     = demoID("Demo.History.NotifierWithHistory")
	DemoBoiler1                 = demoID("Demo.BoilerDemo.Boiler1")
	DemoBoiler1FillLevel        = demoID("Demo.BoilerDemo.Boiler1.FillLevel")
	DemoBoiler1FillLevelSet     = demoID("Demo.BoilerDemo.Boiler1.FillLevelSetPoint")
	DemoBoiler1LevelAlarm       = demoID("Demo.BoilerDemo.Boiler1.LevelAlarm")
	DemoBoiler1TemperatureAlarm = demoID("Demo.BoilerDemo.Boiler1.TemperatureAlarm")
	DemoBoiler2                 = demoID("Demo.BoilerDemo.Boiler2")
	DemoBoiler2LevelAlarm       = demoID("Demo.BoilerDemo.Boiler2.LevelAlarm")

	// DemoEventType is the type of the events the history notifier
	// raises.
	DemoEventType = ua.NewNumericNodeID(demoNamespace, 1005)
)

// MassfolderSize is the number of variables in the mass folder, enough
// to need several browse pages.
const MassfolderSize = 250

// Structure types of the demo namespace.
var (
	workOrderStatusType = ua.StructureDefinition{
		Name: "WorkOrderStatusType",
		Fields: []ua.FieldDefinition{
			{Name: "Actor", DataType: ua.TypeString},
			{Name: "Timestamp", DataType: ua.TypeDateTime},
			{Name: "Comment", DataType: ua.TypeLocalizedText},
		},
	}
	workOrderType = ua.StructureDefinition{
		Name: "WorkOrderType",
		Fields: []ua.FieldDefinition{
			{Name: "ID", DataType: ua.TypeString},
			{Name: "AssetID", DataType: ua.TypeString},
			{Name: "StartTime", DataType: ua.TypeDateTime},
			{Name: "StatusComments", DataType: ua.TypeExtensionObject, StructureName: "WorkOrderStatusType", Array: true},
		},
	}
)

func workOrderStatus(actor string, at time.Time, comment string) *ua.ExtensionObject {
	return &ua.ExtensionObject{
		TypeName: workOrderStatusType.Name,
		Fields: []ua.Variant{
			ua.NewVariant(actor),
			ua.NewVariant(at),
			ua.NewVariant(ua.LocalizedText{Locale: "en", Text: comment}),
		},
	}
}

func initialWorkOrder(now time.Time) *ua.ExtensionObject {
	return &ua.ExtensionObject{
		TypeName: workOrderType.Name,
		Fields: []ua.Variant{
			ua.NewVariant("4f9a6c1e-2b7d-4d1a-9e55-0c6f1d3b8a21"),
			ua.NewVariant("Boiler1"),
			ua.NewVariant(now),
			ua.NewVariant([]*ua.ExtensionObject{
				workOrderStatus("operator", now, "created"),
				workOrderStatus("maintenance", now, "scheduled"),
			}),
		},
	}
}

func qualified(name string) ua.QualifiedName {
	return ua.QualifiedName{NamespaceIndex: demoNamespace, Name: name}
}

func localized(name string) ua.LocalizedText {
	return ua.LocalizedText{Locale: "en", Text: name}
}

// demoBuilder adds demo nodes to a space.
type demoBuilder struct {
	space *addressSpace
	now   time.Time
}

func (b demoBuilder) folder(parent ua.NodeID, id ua.NodeID, name string) ua.NodeID {
	b.space.add(parent, ua.OrganizesType, &node{
		id:          id,
		class:       ua.NodeClassObject,
		browseName:  qualified(name),
		displayName: localized(name),
	})
	return id
}

func (b demoBuilder) object(parent ua.NodeID, id ua.NodeID, name string, notifier bool) ua.NodeID {
	b.space.add(parent, ua.HasComponentType, &node{
		id:            id,
		class:         ua.NodeClassObject,
		browseName:    qualified(name),
		displayName:   localized(name),
		eventNotifier: notifier,
	})
	return id
}

func (b demoBuilder) variable(parent ua.NodeID, id ua.NodeID, name string, value any, writable bool) *node {
	return b.space.add(parent, ua.HasComponentType, &node{
		id:          id,
		class:       ua.NodeClassVariable,
		browseName:  qualified(name),
		displayName: localized(name),
		value: ua.DataValue{
			Value:           ua.NewVariant(value),
			SourceTimestamp: b.now,
		},
		writable: writable,
	})
}

// buildStandard adds the namespace 0 nodes the console uses and the
// type hierarchy.
func buildStandard(space *addressSpace, namespaces ua.NamespaceTable) {
	space.defineSubtype(ua.HierarchicalReferencesType, ua.ReferencesType)
	space.defineSubtype(ua.OrganizesType, ua.HierarchicalReferencesType)
	space.defineSubtype(ua.HasComponentType, ua.HierarchicalReferencesType)
	space.defineSubtype(ua.ConditionType, ua.BaseEventType)
	space.defineSubtype(ua.AlarmConditionType, ua.ConditionType)
	space.defineSubtype(DemoEventType, ua.BaseEventType)

	space.add(ua.NodeID{}, ua.NodeID{}, &node{
		id:          ua.ObjectsFolder,
		class:       ua.NodeClassObject,
		browseName:  ua.QualifiedName{Name: "Objects"},
		displayName: localized("Objects"),
	})
	space.add(ua.ObjectsFolder, ua.OrganizesType, &node{
		id:            ua.ServerObject,
		class:         ua.NodeClassObject,
		browseName:    ua.QualifiedName{Name: "Server"},
		displayName:   localized("Server"),
		eventNotifier: true,
	})
	space.add(ua.ServerObject, ua.HasComponentType, &node{
		id:          ua.ServerNamespaceArray,
		class:       ua.NodeClassVariable,
		browseName:  ua.QualifiedName{Name: "NamespaceArray"},
		displayName: localized("NamespaceArray"),
		value:       ua.DataValue{Value: ua.NewVariant([]string(namespaces))},
	})
	space.add(ua.ServerObject, ua.HasComponentType, &node{
		id:          ua.ServerStatusCurrentTime,
		class:       ua.NodeClassVariable,
		browseName:  ua.QualifiedName{Name: "CurrentTime"},
		displayName: localized("CurrentTime"),
		dynamic:     func(now time.Time) ua.Variant { return ua.NewVariant(now) },
	})
	space.add(ua.ServerObject, ua.HasComponentType, &node{
		id:          ua.ConditionRefreshMethod,
		class:       ua.NodeClassMethod,
		browseName:  ua.QualifiedName{Name: "ConditionRefresh"},
		displayName: localized("ConditionRefresh"),
	})
}

// buildDemo adds the demo namespace. Methods that need the server are
// bound by the caller.
func buildDemo(space *addressSpace, now time.Time) {
	b := demoBuilder{space: space, now: now}

	demo := b.folder(ua.ObjectsFolder, DemoFolder, "Demo")

	static := b.folder(demo, demoID("Demo.Static"), "Static")
	scalar := b.folder(static, demoID("Demo.Static.Scalar"), "Scalar")
	b.variable(scalar, DemoStaticScalarBoolean, "Boolean", true, true)
	b.variable(scalar, DemoStaticScalarDouble, "Double", 0.0, true)
	b.variable(scalar, DemoStaticScalarWorkOrder, "WorkOrder", initialWorkOrder(now), true)

	arrays := b.folder(static, demoID("Demo.Static.Arrays"), "Arrays")
	b.variable(arrays, DemoStaticArraysBoolean, "Boolean", []bool{true, false, true, false, true}, true)
	b.variable(arrays, DemoStaticArraysDouble, "Double", []float64{1.5, 2.5, 3.5, 4.5, 5.5}, true)
	b.variable(arrays, DemoStaticArraysInt32, "Int32", []int32{10, 20, 30, 40, 50}, true)

	dynamic := b.folder(demo, demoID("Demo.Dynamic"), "Dynamic")
	dynamicScalar := b.folder(dynamic, demoID("Demo.Dynamic.Scalar"), "Scalar")
	b.variable(dynamicScalar, DemoDynamicScalarDouble, "Double", 0.0, false)
	dynamicArrays := b.folder(dynamic, demoID("Demo.Dynamic.Arrays"), "Arrays")
	b.variable(dynamicArrays, DemoDynamicArraysDouble, "Double", []float64{0, 0, 0, 0, 0}, false)

	mass := b.folder(demo, DemoMassfolder, "Massfolder_Static")
	for i := range MassfolderSize {
		name := fmt.Sprintf("Variable%04d", i+1)
		b.variable(mass, demoID("Demo.Massfolder_Static."+name), name, uint32(i), false)
	}

	b.object(demo, DemoMethod, "Method", false)

	history := b.folder(demo, demoID("Demo.History"), "History")
	for _, id := range []ua.NodeID{DemoHistoryByte, DemoHistoryDouble, DemoHistorian1, DemoHistorian2} {
		var initial any = 0.0
		if id == DemoHistoryByte {
			initial = byte(0)
		}
		n := b.variable(history, id, id.Text[len("Demo.History."):], initial, true)
		n.historizing = true
	}
	b.object(history, DemoNotifierWithHistory, "NotifierWithHistory", true)

	boilers := b.folder(demo, demoID("Demo.BoilerDemo"), "BoilerDemo")
	for _, boiler := range []ua.NodeID{DemoBoiler1, DemoBoiler2} {
		name := boiler.Text[len("Demo.BoilerDemo."):]
		b.object(boilers, boiler, name, true)
		space.link(ua.ServerObject, ua.HasComponentType, boiler)
	}
	b.variable(DemoBoiler1, DemoBoiler1FillLevel, "FillLevel", 50.0, false)
	b.variable(DemoBoiler1, DemoBoiler1FillLevelSet, "FillLevelSetPoint", 75.0, true)
	for _, alarm := range []ua.NodeID{DemoBoiler1LevelAlarm, DemoBoiler1TemperatureAlarm, DemoBoiler2LevelAlarm} {
		parent := DemoBoiler1
		if alarm == DemoBoiler2LevelAlarm {
			parent = DemoBoiler2
		}
		b.space.add(parent, ua.HasComponentType, &node{
			id:             alarm,
			class:          ua.NodeClassObject,
			browseName:     qualified(alarm.Text[len(parent.Text)+1:]),
			displayName:    localized(alarm.Text[len(parent.Text)+1:]),
			typeDefinition: ua.AlarmConditionType,
		})
	}
}

// dynamicDouble is the value of the dynamic scalar at tick.
func dynamicDouble(tick uint64) float64 {
	return math.Round((50+50*math.Sin(float64(tick)/10))*1000) / 1000
}
