package prototype

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `
inventory:
  - {type: Raw Iron, maxStackSize: 50}
  - {type: Steel Plate, maxStackSize: 50}
jobs:
  - {type: Oxygen Generator, workTime: 1}
events:
  - {name: PingLog, onFire: ping_log}
buildables:
  - type: Metal Smelter
    width: 3
    height: 3
    tags: [Workshop]
    workshop:
      chains:
        - name: Steel
          processingTime: 5
          input: [{objectType: Raw Iron, amount: 5, slotPosX: 0, slotPosY: 0}]
          output: [{objectType: Steel Plate, amount: 1, slotPosX: 2, slotPosY: 0}]
    power: {input: 5}
  - {type: Landing Pad, tags: [LandingPad]}
needs:
  - {type: oxygen, growthRate: 1, restoreBuildable: Oxygen Generator, restoreTime: 2, completeOnFail: true}
traders:
  - {type: Wandering Merchant, speed: 5}
drones:
  - {type: Mining Drone, speed: 3}
`

func TestLoadCatalog(t *testing.T) {
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	inv, ok := c.Inventory("Raw Iron")
	require.True(t, ok)
	assert.Equal(t, 50, inv.MaxStackSize)

	smelter, ok := c.Buildable("Metal Smelter")
	require.True(t, ok)
	assert.True(t, smelter.HasTag("Workshop"))
	chain, ok := smelter.Workshop.Chain("Steel")
	require.True(t, ok)
	assert.Equal(t, 5.0, chain.ProcessingTime)
	_, ok = smelter.Workshop.Chain("Gold")
	assert.False(t, ok)

	pad, ok := c.Buildable("Landing Pad")
	require.True(t, ok)
	assert.Equal(t, 1, pad.Width)
	assert.Nil(t, pad.Workshop)
	_, ok = pad.Workshop.Chain("x")
	assert.False(t, ok)

	assert.Equal(t, []Event{{Name: "PingLog", OnFire: "ping_log"}}, c.Events())
	assert.Len(t, c.Needs(), 1)
	assert.Len(t, c.Traders(), 1)
	assert.Len(t, c.Drones(), 1)

	_, ok = c.Job("nope")
	assert.False(t, ok)
}

func TestBuildRejectsBadDefinitions(t *testing.T) {
	_, err := Build(File{
		Inventory: []Inventory{{Type: "A", MaxStackSize: 1}, {Type: "A", MaxStackSize: 2}, {Type: "B"}},
		Buildables: []Buildable{{
			Type: "W",
			Workshop: &Workshop{Chains: []ProductionChain{{
				Name:  "c",
				Input: []Item{{ObjectType: "Unobtainium", Amount: 1}},
			}}},
		}},
	})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSampleCatalogLoads(t *testing.T) {
	c, err := LoadFile("../../../configs/prototypes.yaml")
	require.NoError(t, err)

	smelter, ok := c.Buildable("Smelter")
	require.True(t, ok)
	require.NotNil(t, smelter.Workshop)
	require.NotNil(t, smelter.Power)
	assert.Equal(t, 2.0, smelter.Power.Input)
	pad, ok := c.Buildable("Landing Pad")
	require.True(t, ok)
	assert.True(t, pad.HasTag("LandingPad"))
	assert.Len(t, c.Events(), 2)
	assert.Len(t, c.Drones(), 1)
}
