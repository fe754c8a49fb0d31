package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	RecentBlogsKey  = "blogs:recent"
	PopularBlogsKey = "blogs:popular"
	ProductKeyFmt   = "product:%s"
	BlacklistKeyFmt = "blacklist:%s"
)

const (
	SideListTTL = 1 * time.Minute
	ProductTTL  = 10 * time.Minute
)

// ProductKey is the cache key of a product looked up by slug.
func ProductKey(slug string) string {
	return fmt.Sprintf(ProductKeyFmt, slug)
}

// BlacklistKey is the key marking a revoked session token ID.
func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyFmt, jti)
}

// InvalidateBlogLists drops the cached recent and popular blog side lists.
func InvalidateBlogLists(ctx context.Context) {
	Invalidate(ctx, RecentBlogsKey, PopularBlogsKey)
}

// InvalidatePopularBlogs drops the most-viewed side list after a view is counted.
func InvalidatePopularBlogs(ctx context.Context) {
	Invalidate(ctx, PopularBlogsKey)
}

// InvalidateProduct drops a cached product.
func InvalidateProduct(ctx context.Context, slug string) {
	Invalidate(ctx, ProductKey(slug))
}
