package diffscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const javaDiff = `diff --git a/backend/src/main/java/com/shop/OrderService.java b/backend/src/main/java/com/shop/OrderService.java
index 83c4f2d..1a9b0e4 100644
--- a/backend/src/main/java/com/shop/OrderService.java
+++ b/backend/src/main/java/com/shop/OrderService.java
@@ -10,3 +10,4 @@
 public class OrderService {
-    private final PaymentClient client;
+    private final PaymentClient paymentClient;
+    private final AuditLog auditLog;
 }
diff --git a/frontend/src/app/cart.component.ts b/frontend/src/app/cart.component.ts
index 11aa22b..33cc44d 100644
--- a/frontend/src/app/cart.component.ts
+++ b/frontend/src/app/cart.component.ts
@@ -1,1 +1,2 @@
+export class CartComponent {
 }
`

func TestChangedEntities_FromJavaAndTSDiff(t *testing.T) {
	got := ChangedEntities(javaDiff)

	assert.Contains(t, got, "OrderService")
	assert.Contains(t, got, "CartComponent")
	// File base names of changed source files count as candidates too.
	assert.Contains(t, got, "cart.component")
}

func TestChangedEntities_Deduplicates(t *testing.T) {
	got := ChangedEntities(javaDiff)
	seen := map[string]int{}
	for _, name := range got {
		seen[name]++
	}
	for name, n := range seen {
		assert.Equal(t, 1, n, "duplicate entity %s", name)
	}
}

func TestChangedEntities_Sorted(t *testing.T) {
	got := ChangedEntities(javaDiff)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i])
	}
}

func TestChangedEntities_EmptyDiff(t *testing.T) {
	assert.Nil(t, ChangedEntities(""))
	assert.Nil(t, ChangedEntities("   \n  "))
}

func TestChangedEntities_MalformedDiffFallsBack(t *testing.T) {
	raw := "+export class CheckoutService {\n+  constructor() {}\n"
	got := ChangedEntities(raw)
	assert.Contains(t, got, "CheckoutService")
}

func TestChangedEntities_IgnoresNonCodeFiles(t *testing.T) {
	d := `diff --git a/README.md b/README.md
index 1111111..2222222 100644
--- a/README.md
+++ b/README.md
@@ -1 +1,2 @@
 # readme
+more docs
`
	got := ChangedEntities(d)
	assert.NotContains(t, got, "README")
}
