package apiclient

import "storefront/internal/cache"

// Resource kinds used to tag cached reads.
const (
	KindRetailers    = "retailers"
	KindRetailer     = "retailer"
	KindCategories   = "categories"
	KindFeatured     = "featured"
	KindBestSelling  = "best_selling"
	KindBuyAgain     = "buy_again"
	KindRecommended  = "recommended"
	KindProducts     = "products"
	KindProduct      = "product"
	KindCart         = "cart"
	KindWishlist     = "wishlist"
	KindProfile      = "profile"
	KindAddresses    = "addresses"
	KindAddress      = "address"
	KindOrders       = "orders"
	KindOrder        = "order"
	KindRewardConfig = "reward_config"
	KindLoyalty      = "loyalty"
	KindReferrals    = "referrals"
)

var (
	profileRes   = cache.Kind(KindProfile)
	wishlistRes  = cache.Kind(KindWishlist)
	addressesRes = cache.Kind(KindAddresses)
	referralsRes = cache.Kind(KindReferrals)
)

func tags(res ...cache.Resource) []cache.Resource {
	return res
}

func orderRes(id string) cache.Resource {
	return cache.Res(KindOrder, id)
}
