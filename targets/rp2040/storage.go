//go:build rp2040

package main

import (
	"machine"

	"gofocus/blob"
)

// One erase block (4KiB) per config blob
const slotBlocks = 1

// openFlashStore binds the config blobs to the flash space after the firmware image
func openFlashStore() (*blob.SlotStore, error) {
	return blob.NewSlotStore(machine.Flash, slotBlocks)
}
