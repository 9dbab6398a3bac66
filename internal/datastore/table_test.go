package datastore_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
	"github.com/frahmantamala/travel-backoffice/internal/datastore/datastoretest"
)

type customer struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type payment struct {
	ID        string  `json:"id"`
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
}

type bookingWithRelations struct {
	ID         string    `json:"id"`
	Reference  string    `json:"reference"`
	CustomerID string    `json:"customer_id"`
	Customer   *customer `json:"customer"`
	Payments   []payment `json:"payments"`
}

var _ = Describe("Table", func() {
	var (
		server   *datastoretest.Server
		client   *datastore.Client
		bookings *datastore.Table[booking]
		ctx      context.Context
	)

	BeforeEach(func() {
		server = datastoretest.NewServer()
		client = datastore.NewClient(server.Config(), quietLogger)
		bookings = datastore.NewTable[booking](client, datastore.TableSpec{Name: "bookings"})
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("FetchAll", func() {
		It("returns an empty slice, not nil, for an empty table", func() {
			res := bookings.FetchAll(ctx)

			Expect(res.OK()).To(BeTrue())
			Expect(res.Value).NotTo(BeNil())
			Expect(res.Value).To(BeEmpty())
		})

		It("orders newest first by default", func() {
			server.Seed("bookings",
				datastoretest.Row{"reference": "first"},
				datastoretest.Row{"reference": "second"},
				datastoretest.Row{"reference": "third"},
			)

			res := bookings.FetchAll(ctx)

			Expect(res.OK()).To(BeTrue())
			Expect(res.Value).To(HaveLen(3))
			Expect(res.Value[0].Reference).To(Equal("third"))
			Expect(res.Value[2].Reference).To(Equal("first"))
			Expect(server.LastRequest().Query.Get("order")).To(Equal("created_at.desc"))
		})

		It("embeds the declared relations", func() {
			server.Seed("customers", datastoretest.Row{"id": "c-1", "full_name": "Asha Rao"})
			server.Seed("bookings", datastoretest.Row{"id": "b-1", "reference": "BK-1", "customer_id": "c-1"})
			server.Seed("payments",
				datastoretest.Row{"booking_id": "b-1", "amount": 100},
				datastoretest.Row{"booking_id": "b-1", "amount": 250},
				datastoretest.Row{"booking_id": "other", "amount": 999},
			)
			withRelations := datastore.NewTable[bookingWithRelations](client, datastore.TableSpec{
				Name:   "bookings",
				Select: "*,customer:customers(id,full_name),payments(id,amount)",
			})

			res := withRelations.FetchAll(ctx)

			Expect(res.OK()).To(BeTrue())
			Expect(res.Value).To(HaveLen(1))
			Expect(res.Value[0].Customer).NotTo(BeNil())
			Expect(res.Value[0].Customer.FullName).To(Equal("Asha Rao"))
			Expect(res.Value[0].Payments).To(HaveLen(2))
		})
	})

	Describe("Find", func() {
		It("passes filters and or-groups through to the store", func() {
			server.Seed("bookings",
				datastoretest.Row{"reference": "a", "total_amount": 100},
				datastoretest.Row{"reference": "b", "total_amount": 500},
				datastoretest.Row{"reference": "c", "total_amount": 900},
			)

			res := bookings.Find(ctx, datastore.Query{
				Filters: []datastore.Filter{datastore.Gte("total_amount", 200)},
				Or:      []datastore.Filter{datastore.Eq("reference", "b"), datastore.Eq("reference", "c")},
				Order:   []datastore.Order{datastore.Asc("total_amount")},
			})

			Expect(res.OK()).To(BeTrue())
			Expect(res.Value).To(HaveLen(2))
			Expect(res.Value[0].Reference).To(Equal("b"))
			Expect(res.Value[1].Reference).To(Equal("c"))
		})

		It("keeps a comma search term inside one or-branch", func() {
			server.Seed("bookings",
				datastoretest.Row{"reference": "Doe, Jane"},
				datastoretest.Row{"reference": "Doe"},
				datastoretest.Row{"reference": "Jane"},
			)

			res := bookings.Find(ctx, datastore.Query{
				Or: []datastore.Filter{datastore.ILike("reference", "*Doe, Jane*"), datastore.Eq("reference", "none")},
			})

			Expect(res.OK()).To(BeTrue())
			Expect(res.Value).To(HaveLen(1))
			Expect(res.Value[0].Reference).To(Equal("Doe, Jane"))
			Expect(server.LastRequest().Query.Get("or")).To(ContainSubstring(`"*Doe, Jane*"`))
		})

		It("does not let a search term open extra or-branches", func() {
			server.Seed("bookings",
				datastoretest.Row{"reference": "a"},
				datastoretest.Row{"reference": "b"},
			)

			res := bookings.Find(ctx, datastore.Query{
				Or: []datastore.Filter{datastore.ILike("reference", "*x*,reference.neq.zzz")},
			})

			Expect(res.OK()).To(BeTrue())
			Expect(res.Value).To(BeEmpty())
		})

		It("matches in-lists holding list syntax", func() {
			server.Seed("bookings",
				datastoretest.Row{"reference": "A,1"},
				datastoretest.Row{"reference": "A"},
			)

			res := bookings.Find(ctx, datastore.Query{
				Filters: []datastore.Filter{datastore.In("reference", "A,1", `q"t`)},
			})

			Expect(res.OK()).To(BeTrue())
			Expect(res.Value).To(HaveLen(1))
			Expect(res.Value[0].Reference).To(Equal("A,1"))
		})
	})

	Describe("FetchByID", func() {
		It("returns NotFound instead of an empty success", func() {
			res := bookings.FetchByID(ctx, "missing")

			Expect(res.OK()).To(BeFalse())
			Expect(errors.Is(res.Err, internal.ErrNotFound)).To(BeTrue())
			Expect(res.Status).To(Equal(datastore.StatusClientError))
			Expect(res.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Create", func() {
		It("returns the persisted record with server-assigned fields", func() {
			created := bookings.Create(ctx, map[string]interface{}{"reference": "BK-9", "total_amount": 4200})

			Expect(created.OK()).To(BeTrue())
			Expect(created.Value.ID).NotTo(BeEmpty())
			Expect(created.Value.CreatedAt).NotTo(BeEmpty())
			Expect(created.StatusCode).To(Equal(http.StatusCreated))

			fetched := bookings.FetchByID(ctx, created.Value.ID)
			Expect(fetched.OK()).To(BeTrue())
			Expect(fetched.Value).To(Equal(created.Value))
		})

		It("surfaces store-reported violations", func() {
			server.Unique("bookings", "reference")
			Expect(bookings.Create(ctx, map[string]string{"reference": "dup"}).OK()).To(BeTrue())

			res := bookings.Create(ctx, map[string]string{"reference": "dup"})

			Expect(res.Status).To(Equal(datastore.StatusClientError))
			Expect(res.StatusCode).To(Equal(http.StatusConflict))
			Expect(res.Err.Error()).To(ContainSubstring("duplicate key"))
		})
	})

	Describe("Update", func() {
		It("returns NotFound for an unknown id", func() {
			res := bookings.Update(ctx, "missing", map[string]string{"reference": "x"})

			Expect(errors.Is(res.Err, internal.ErrNotFound)).To(BeTrue())
		})

		It("returns the updated record", func() {
			created := bookings.Create(ctx, map[string]string{"reference": "old"})

			res := bookings.Update(ctx, created.Value.ID, map[string]string{"reference": "new"})

			Expect(res.OK()).To(BeTrue())
			Expect(res.Value.ID).To(Equal(created.Value.ID))
			Expect(res.Value.Reference).To(Equal("new"))
		})
	})

	Describe("Delete", func() {
		It("is idempotent", func() {
			created := bookings.Create(ctx, map[string]string{"reference": "gone"})

			Expect(bookings.Delete(ctx, created.Value.ID).OK()).To(BeTrue())
			Expect(bookings.Delete(ctx, created.Value.ID).OK()).To(BeTrue())
			Expect(bookings.Delete(ctx, "never-existed").OK()).To(BeTrue())
			Expect(bookings.FetchAll(ctx).Value).To(BeEmpty())
		})
	})

	Describe("WithTimeout", func() {
		It("bounds every call of the derived table", func() {
			server.SetDelay(300 * time.Millisecond)

			res := bookings.WithTimeout(20 * time.Millisecond).FetchAll(ctx)

			Expect(res.Status).To(Equal(datastore.StatusTimeout))
			Expect(res.Value).To(BeNil())
		})
	})
})

var _ = Describe("Query", func() {
	It("encodes filters, or-groups, order and paging", func() {
		q := datastore.Query{
			Select:  "*,customer:customers(*)",
			Filters: []datastore.Filter{datastore.Eq("status", "confirmed"), datastore.Is("deleted_at", "null")},
			Or:      []datastore.Filter{datastore.Eq("user_id", "u1"), datastore.Is("user_id", "null")},
			Order:   []datastore.Order{datastore.Desc("created_at"), datastore.Asc("reference")},
			Limit:   10,
			Offset:  20,
		}

		v := q.Values()

		Expect(v.Get("select")).To(Equal("*,customer:customers(*)"))
		Expect(v.Get("status")).To(Equal("eq.confirmed"))
		Expect(v.Get("deleted_at")).To(Equal("is.null"))
		Expect(v.Get("or")).To(Equal("(user_id.eq.u1,user_id.is.null)"))
		Expect(v.Get("order")).To(Equal("created_at.desc,reference.asc"))
		Expect(v.Get("limit")).To(Equal("10"))
		Expect(v.Get("offset")).To(Equal("20"))
	})

	It("quotes list values that carry list syntax", func() {
		q := datastore.Query{
			Filters: []datastore.Filter{datastore.In("code", "a", "b,c", `d"e`)},
			Or:      []datastore.Filter{datastore.ILike("full_name", "*Doe, Jane*"), datastore.Eq("email", `x\y`)},
		}

		v := q.Values()

		Expect(v.Get("code")).To(Equal(`in.(a,"b,c","d\"e")`))
		Expect(v.Get("or")).To(Equal(`(full_name.ilike."*Doe, Jane*",email.eq."x\\y")`))
	})

	It("maps logical methods onto verbs", func() {
		Expect(datastore.MethodSelect.HTTPMethod()).To(Equal(http.MethodGet))
		Expect(datastore.MethodInsert.HTTPMethod()).To(Equal(http.MethodPost))
		Expect(datastore.MethodUpdate.HTTPMethod()).To(Equal(http.MethodPatch))
		Expect(datastore.MethodDelete.HTTPMethod()).To(Equal(http.MethodDelete))
	})

	It("Where appends without mutating the receiver", func() {
		base := datastore.Query{Filters: []datastore.Filter{datastore.Eq("a", 1)}}
		derived := base.Where(datastore.Eq("b", 2))

		Expect(base.Filters).To(HaveLen(1))
		Expect(derived.Filters).To(HaveLen(2))
	})
})

var _ = Describe("Result", func() {
	It("Map transforms values and passes failures through", func() {
		ok := datastore.Map(datastore.Ok(2, 200), func(v int) string { return "n" })
		Expect(ok.Value).To(Equal("n"))

		failed := datastore.Map(datastore.Fail[int](internal.ErrTimeout), func(v int) string { return "n" })
		Expect(failed.Value).To(BeEmpty())
		Expect(failed.Status).To(Equal(datastore.StatusTimeout))
	})
})
