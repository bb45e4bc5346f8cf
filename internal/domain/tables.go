package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Shop
	&Product{},
	&CartItem{},
	&Order{},
	&Offer{},
}
