package query

import "github.com/afterlife-xyz/afterlife/service/persist"

// ResolveDisplayName returns wallet's claimed username if one exists in
// users, otherwise its EIP-55 checksummed form.
func ResolveDisplayName(users persist.UsersData, wallet persist.EthereumAddress) string {
	index := users.AddressIndex()
	if name, ok := index[persist.Address(string(wallet))]; ok {
		return name
	}
	return wallet.Checksum()
}

// AddressesForUsername resolves a /user/level/{username} path segment to
// the wallet addresses it should aggregate: every address users lists
// under that exact key, or the segment itself (as an address) if it
// claims no username entry.
func AddressesForUsername(users persist.UsersData, username string) []persist.EthereumAddress {
	if addrs, ok := users[username]; ok {
		out := make([]persist.EthereumAddress, len(addrs))
		for i, a := range addrs {
			out[i] = persist.Address(a)
		}
		return out
	}
	return []persist.EthereumAddress{persist.Address(username)}
}
