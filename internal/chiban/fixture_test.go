package chiban

import (
	"testing"

	"chiban-geocoder/internal/addressindex"

	"github.com/stretchr/testify/require"
)

var oita = []string{"大分県", "日田市"}

func newTestIndex(t *testing.T) *addressindex.Index {
	t.Helper()
	ix, err := addressindex.FromLines(
		"大分県;1,!01,131.612,33.238,jisx0401:44",
		"大分県;1,日田市;3,!03,130.941,33.321,jisx0402:44204/postcode:8770000",
		"大分県;1,日田市;3,田島;5,畑江;6,583番地;7,8;8,!20,130.939,33.321,fude:12345",
		"大分県;1,日田市;3,田島;5,畑江;6,583番地;7,9;8,!20,130.940,33.322,fude:12346",
		"大分県;1,日田市;3,田島;5,畑江;6,600番地;7,!20,130.941,33.323,fude:20000",
		"大分県;1,日田市;3,田島;5,畑江;6,700番地;7,1;8,!20,130.942,33.324",
		"大分県;1,日田市;3,田島;5,畑江;6,45番地;7,!20,130.943,33.325,fude:45000",
		"大分県;1,日田市;3,田島;5,畑江;6,48番地;7,!20,130.944,33.326,fude:48000",
		"大分県;1,日田市;3,田島;5,畑江;6,50番地;7,3;8,!20,130.945,33.327,fude:50003",
		"大分県;1,日田市;3,北豆田;5,平ノ下;6,1452番地;7,7;8,!20,130.930,33.310,fude:30001",
		"大分県;1,玖珠郡;2,九重町;3,!03,131.190,33.226,jisx0402:44825",
		"大分県;1,玖珠郡;2,九重町;3,田野;5,100番地;7,!20,131.200,33.200,fude:40000",
	)
	require.NoError(t, err)
	return ix
}

func fudeNode(t *testing.T, ix *addressindex.Index, code string) addressindex.NodeID {
	t.Helper()
	ids := ix.LookupByCode(addressindex.NoteFude, code)
	require.Len(t, ids, 1)
	return ids[0]
}
