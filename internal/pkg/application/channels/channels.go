package channels

import (
	"github.com/spoolsync/spool-mgmt/pkg/types"
)

type busDevice struct {
	deviceType  string
	subChannels int
	capability  types.Capability
}

var knownAddresses = map[int]busDevice{
	0x48: {"ADS1115", 4, types.CapabilityLoadCell},
	0x49: {"ADS1115", 4, types.CapabilityLoadCell},
	0x4A: {"ADS1115", 4, types.CapabilityLoadCell},
	0x4B: {"ADS1115", 4, types.CapabilityLoadCell},
	0x24: {"PN532", 1, types.CapabilityNFC},
	0x29: {"PN532", 1, types.CapabilityNFC},
	0x70: {"TCA9548A", 8, types.CapabilityMux},
	0x71: {"TCA9548A", 8, types.CapabilityMux},
	0x72: {"TCA9548A", 8, types.CapabilityMux},
	0x73: {"TCA9548A", 8, types.CapabilityMux},
}

const (
	directLoadCellType = "HX711"
	directNFCType      = "MFRC522"
)

// Map expands a hardware scan into logical sensor channels. Bus mapped
// load cells and NFC readers are numbered with one counter per capability in
// scan order. Directly wired channels keep their own index.
func Map(scan types.HardwareScan) []types.ChannelRecord {
	records := []types.ChannelRecord{}
	counters := map[types.Capability]int{}

	for _, dev := range scan.I2CScan {
		address := dev.Address

		known, ok := knownAddresses[address]
		if !ok || known.capability == types.CapabilityMux {
			deviceType, capability := "UNKNOWN", types.CapabilityUnknown
			if ok {
				deviceType, capability = known.deviceType, known.capability
			}

			records = append(records, types.ChannelRecord{
				BusAddress: &address,
				DeviceType: deviceType,
				SubChannel: 0,
				Capability: capability,
			})
			continue
		}

		for sub := 0; sub < known.subChannels; sub++ {
			suggested := counters[known.capability]
			counters[known.capability]++

			records = append(records, types.ChannelRecord{
				BusAddress:       &address,
				DeviceType:       known.deviceType,
				SubChannel:       sub,
				SuggestedChannel: &suggested,
				Capability:       known.capability,
			})
		}
	}

	records = append(records, direct(scan.HX711Channels, directLoadCellType, types.CapabilityLoadCell)...)
	records = append(records, direct(scan.MFRC522Channels, directNFCType, types.CapabilityNFC)...)

	return records
}

func direct(channels []int, deviceType string, capability types.Capability) []types.ChannelRecord {
	records := make([]types.ChannelRecord, 0, len(channels))

	for _, ch := range channels {
		suggested := ch
		records = append(records, types.ChannelRecord{
			DeviceType:       deviceType,
			SubChannel:       ch,
			SuggestedChannel: &suggested,
			Capability:       capability,
		})
	}

	return records
}
