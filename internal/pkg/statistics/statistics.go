package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/launchkit/launchkit/app/models"
	"github.com/launchkit/launchkit/internal/pkg/cache"
	"github.com/launchkit/launchkit/internal/pkg/database"
)

const (
	CacheKeyUsers       = "statistics:users:total"
	CacheKeySignups     = "statistics:users:signups:%s" // Format with date YYYY-MM-DD
	CacheKeySubscribers = "statistics:subscribers:total"
	CacheExpiration     = 30 * time.Minute
)

// StatisticsData enthält die Statistikdaten für die Startseite
type StatisticsData struct {
	TotalUsers   int
	TodaySignups int
	PayingUsers  int
}

// Variablen für die Cache-Aktualisierungslogik
var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache prüft, ob der Cache aktualisiert werden sollte
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded aktualisiert den Cache, wenn nötig
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Fehler beim Aktualisieren des Statistik-Caches: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer setzt den Timer für die Cache-Aktualisierung zurück
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// payingUsersQuery counts users linked to any billing provider subscription.
func payingUsersQuery() (int64, error) {
	var count int64
	err := database.GetDB().Model(&models.User{}).
		Where("stripe_subscription_id <> '' OR paddle_subscription_id <> '' OR dodo_subscription_id <> '' OR paypal_subscription_id <> ''").
		Count(&count).Error
	return count, err
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	var todaySignups int64
	if err := db.Model(&models.User{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todaySignups).Error; err != nil {
		log.Printf("Error counting today's signups: %v", err)
		return err
	}

	payingUsers, err := payingUsersQuery()
	if err != nil {
		log.Printf("Error counting paying users: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total users: %v", err)
		return err
	}

	signupKey := fmt.Sprintf(CacheKeySignups, today)
	if err := cache.Set(signupKey, strconv.FormatInt(todaySignups, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's signups: %v", err)
		return err
	}

	if err := cache.Set(CacheKeySubscribers, strconv.FormatInt(payingUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching paying users: %v", err)
		return err
	}

	log.Printf("Statistics updated in cache: Total Users: %d, Today's Signups: %d, Paying Users: %d",
		totalUsers, todaySignups, payingUsers)

	return nil
}

// GetTotalUsers returns the total number of users from cache or database
func GetTotalUsers() int {
	val, err := cache.Get(CacheKeyUsers)
	if err != nil {
		var count int64
		if err := database.GetDB().Model(&models.User{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total users: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyUsers, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total users: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTodaySignups returns the number of users registered today from cache or database
func GetTodaySignups() int {
	today := time.Now().Format("2006-01-02")
	signupKey := fmt.Sprintf(CacheKeySignups, today)

	val, err := cache.Get(signupKey)
	if err != nil {
		var count int64
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		if err := database.GetDB().Model(&models.User{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
			log.Printf("Error counting today's signups: %v", err)
			return 0
		}

		if err := cache.Set(signupKey, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching today's signups: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetPayingUsers returns the number of users with an active provider
// subscription from cache or database
func GetPayingUsers() int {
	val, err := cache.Get(CacheKeySubscribers)
	if err != nil {
		count, err := payingUsersQuery()
		if err != nil {
			log.Printf("Error counting paying users: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeySubscribers, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching paying users: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetStatisticsData returns all statistics data as StatisticsData structure
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TotalUsers:   GetTotalUsers(),
		TodaySignups: GetTodaySignups(),
		PayingUsers:  GetPayingUsers(),
	}
}
