package models

type Category string

const (
	CategoryFashion     Category = "fashion"
	CategoryFootwear    Category = "footwear"
	CategoryAccessories Category = "accessories"
	CategoryElectronics Category = "electronics"
	CategoryHome        Category = "home"
	CategoryBeauty      Category = "beauty"
	CategoryGrocery     Category = "grocery"
	CategoryOther       Category = "other"
)

var Categories = []Category{
	CategoryFashion,
	CategoryFootwear,
	CategoryAccessories,
	CategoryElectronics,
	CategoryHome,
	CategoryBeauty,
	CategoryGrocery,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Size string

const (
	SizeXS  Size = "XS"
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

var Sizes = []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL}

func (s Size) Valid() bool {
	for _, known := range Sizes {
		if s == known {
			return true
		}
	}
	return false
}
