// Package domain models fire danger rating feeds published by the NSW Rural
// Fire Service (RFS) and the ACT Emergency Services Agency (ESA).
//
// # Data Sources
//
// Both agencies publish an XML document listing every fire weather district
// with today's and tomorrow's danger rating and total fire ban status. The
// RFS feed covers NSW districts; the ESA feed covers the single "ACT"
// district. Outside the bushfire season the ESA serves a blank file, in which
// case the RFS feed is used instead (see [Source]).
//
// # Envelopes
//
// RFS (bare map):
//
//	<FireDangerMap>
//	  <District>
//	    <Name>Greater Sydney Region</Name>
//	    <RegionNumber>4</RegionNumber>
//	    <Councils>Bayside;Blacktown;...</Councils>
//	    <DangerLevelToday>HIGH</DangerLevelToday>
//	    <DangerLevelTomorrow>VERY HIGH</DangerLevelTomorrow>
//	    <FireBanToday>No</FireBanToday>
//	    <FireBanTomorrow>Yes</FireBanTomorrow>
//	  </District>
//	  ...
//	</FireDangerMap>
//
// ESA (RSS channel):
//
//	<rss><channel>
//	  <pubDate>...</pubDate>
//	  <lastBuildDate>...</lastBuildDate>
//	  <FireDangerMap><District>...</District></FireDangerMap>
//	</channel></rss>
//
// The ESA channel normally holds a single District; it is indexed like any
// other list.
//
// # Field Conventions
//
// Danger levels arrive upper case ("VERY HIGH") and are reported with only
// the first letter capitalised ("Very high"). Fire ban flags are the literal
// strings "Yes" and "No"; anything other than an exact "Yes" is false.
// Councils are a semicolon separated list.
package domain
