package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Capability names a single action a device+user pair may perform
type Capability string

const (
	CapScanBarcode       Capability = "can_scan_barcode"
	CapAdjustInventory   Capability = "can_adjust_inventory"
	CapCreateOrders      Capability = "can_create_orders"
	CapApproveOrders     Capability = "can_approve_orders"
	CapViewReports       Capability = "can_view_reports"
	CapEditProducts      Capability = "can_edit_products"
	CapManageDevices     Capability = "can_manage_devices"
	CapTransferInventory Capability = "can_transfer_inventory"
	CapMarkDamaged       Capability = "can_mark_damaged"
	CapReceiveInventory  Capability = "can_receive_inventory"
)

// AllCapabilities lists every capability key in a stable order
var AllCapabilities = []Capability{
	CapScanBarcode,
	CapAdjustInventory,
	CapCreateOrders,
	CapApproveOrders,
	CapViewReports,
	CapEditProducts,
	CapManageDevices,
	CapTransferInventory,
	CapMarkDamaged,
	CapReceiveInventory,
}

// ValidCapability reports whether s is one of the known capability keys
func ValidCapability(s string) bool {
	for _, c := range AllCapabilities {
		if Capability(s) == c {
			return true
		}
	}
	return false
}

// CapabilitySet holds the ten permission flags stored on a device.
// Stored flags are raw admin intent; role clamping happens in EffectiveFor.
type CapabilitySet struct {
	CanScanBarcode       bool `json:"can_scan_barcode"`
	CanAdjustInventory   bool `json:"can_adjust_inventory"`
	CanCreateOrders      bool `json:"can_create_orders"`
	CanApproveOrders     bool `json:"can_approve_orders"`
	CanViewReports       bool `json:"can_view_reports"`
	CanEditProducts      bool `json:"can_edit_products"`
	CanManageDevices     bool `json:"can_manage_devices"`
	CanTransferInventory bool `json:"can_transfer_inventory"`
	CanMarkDamaged       bool `json:"can_mark_damaged"`
	CanReceiveInventory  bool `json:"can_receive_inventory"`
}

// DefaultCapabilitySet is the set a device carries with no assignment:
// the four basic flags on, all advanced flags off.
func DefaultCapabilitySet() CapabilitySet {
	return CapabilitySet{
		CanScanBarcode:      true,
		CanAdjustInventory:  true,
		CanMarkDamaged:      true,
		CanReceiveInventory: true,
	}
}

// AllCapabilitySet returns every flag enabled
func AllCapabilitySet() CapabilitySet {
	return CapabilitySet{
		CanScanBarcode:       true,
		CanAdjustInventory:   true,
		CanCreateOrders:      true,
		CanApproveOrders:     true,
		CanViewReports:       true,
		CanEditProducts:      true,
		CanManageDevices:     true,
		CanTransferInventory: true,
		CanMarkDamaged:       true,
		CanReceiveInventory:  true,
	}
}

// basicOnly keeps the four basic flags and forces the advanced six off
func (c CapabilitySet) basicOnly() CapabilitySet {
	return CapabilitySet{
		CanScanBarcode:      c.CanScanBarcode,
		CanAdjustInventory:  c.CanAdjustInventory,
		CanMarkDamaged:      c.CanMarkDamaged,
		CanReceiveInventory: c.CanReceiveInventory,
	}
}

// EffectiveFor applies the role policy to the stored flags:
// admin and super_admin get everything, employees are clamped to the
// basic flags, any other role keeps the stored set as-is.
// Must be re-run on every authorization check.
func (c CapabilitySet) EffectiveFor(role UserRole) CapabilitySet {
	switch role {
	case RoleAdmin, RoleSuperAdmin:
		return AllCapabilitySet()
	case RoleEmployee:
		return c.basicOnly()
	default:
		return c
	}
}

// Has reports whether the named capability flag is enabled in this set
func (c CapabilitySet) Has(cap Capability) bool {
	switch cap {
	case CapScanBarcode:
		return c.CanScanBarcode
	case CapAdjustInventory:
		return c.CanAdjustInventory
	case CapCreateOrders:
		return c.CanCreateOrders
	case CapApproveOrders:
		return c.CanApproveOrders
	case CapViewReports:
		return c.CanViewReports
	case CapEditProducts:
		return c.CanEditProducts
	case CapManageDevices:
		return c.CanManageDevices
	case CapTransferInventory:
		return c.CanTransferInventory
	case CapMarkDamaged:
		return c.CanMarkDamaged
	case CapReceiveInventory:
		return c.CanReceiveInventory
	default:
		return false
	}
}

// Value implements driver.Valuer so the set can be stored in a jsonb column
func (c CapabilitySet) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for reading the jsonb column back
func (c *CapabilitySet) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = CapabilitySet{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into CapabilitySet", src)
	}
}
